package hriveauth

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/hrive/hriveauth/role"
)

func TestSeedTestUsersIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	first, err := e.SeedTestUsers(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(first.Created) != 4 || len(first.Existing) != 0 {
		t.Fatalf("first run = %+v", first)
	}

	second, err := e.SeedTestUsers(ctx)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if len(second.Created) != 0 || len(second.Existing) != 4 {
		t.Fatalf("second run = %+v", second)
	}

	a := append([]string(nil), first.Created...)
	b := append([]string(nil), second.Existing...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("created %v vs existing %v", a, b)
		}
	}
	if got := e.MetricsSnapshot().Counters[MetricSeedUserCreated]; got != 4 {
		t.Fatalf("seed created metric = %d", got)
	}
}

func TestSeededUsersLogInWithTheirRole(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	if _, err := e.SeedTestUsers(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, u := range DefaultSeedUsers() {
		res, err := e.Login(ctx, u.Email, u.Password)
		if err != nil {
			t.Fatalf("%s: login: %v", u.Email, err)
		}
		want, _ := role.Parse(u.Role)
		if res.Role != want {
			t.Fatalf("%s: role = %v, want %v", u.Email, res.Role, want)
		}
	}
}

func TestSeedDisabled(t *testing.T) {
	e, _ := newTestEngine(t, func(c *Config) { c.Seed.Enabled = false })
	if _, err := e.SeedTestUsers(context.Background()); !errors.Is(err, ErrSeedDisabled) {
		t.Fatalf("expected ErrSeedDisabled, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	cases := []SeedUser{
		{Email: "x@hrive.test", Password: "long-enough-pw", Role: "ceo"},
		{Email: "", Password: "long-enough-pw", Role: "admin"},
		{Email: "x@hrive.test", Password: "short", Role: "admin"},
	}
	for _, c := range cases {
		if _, err := e.CreateUser(ctx, c); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%+v: expected ErrInvalidRequest, got %v", c, err)
		}
	}

	if _, err := e.CreateUser(ctx, SeedUser{Email: "dup@hrive.test", Password: "long-enough-pw", Role: "admin"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.CreateUser(ctx, SeedUser{Email: "DUP@hrive.test", Password: "long-enough-pw", Role: "employee"}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestSeedStopsOnStoreFailure(t *testing.T) {
	e, mr := newTestEngine(t, nil)
	mr.Close()
	res, err := e.SeedTestUsers(context.Background())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if res == nil || len(res.Created) != 0 {
		t.Fatalf("unexpected partial result %+v", res)
	}
}
