package guard

import (
	"testing"

	"github.com/hrive/hriveauth/role"
)

func BenchmarkEvaluate(b *testing.B) {
	g := MustNew(role.Admin, role.HRManager)
	sessions := []Session{
		{Loading: true},
		{},
		{User: &User{ID: "u1"}, Role: role.HRManager},
		{User: &User{ID: "u2"}, Role: role.Employee},
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = g.Evaluate(sessions[i%len(sessions)], "/hr/payroll")
	}
}
