package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/hrive/hriveauth/role"
)

const (
	formatVersion = 1

	offsetRefreshHash = 1
	offsetCreatedAt   = offsetRefreshHash + 32
	offsetExpiresAt   = offsetCreatedAt + 8
	headerSize        = offsetExpiresAt + 8
)

var (
	errBlobTooShort   = errors.New("session blob too short")
	errBlobVersion    = errors.New("invalid session version")
	errFieldTooLong   = errors.New("session field too long")
	errRoleOutOfRange = errors.New("session role out of range")
)

// Encode serializes s. SessionID is the Redis key and is not encoded.
func Encode(s *Session) ([]byte, error) {
	if len(s.UserID) > 255 || len(s.Email) > 255 {
		return nil, errFieldTooLong
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + 3 + len(s.UserID) + len(s.Email))

	buf.WriteByte(formatVersion)
	buf.Write(s.RefreshHash[:])

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(s.CreatedAt))
	buf.Write(ts[:])
	binary.BigEndian.PutUint64(ts[:], uint64(s.ExpiresAt))
	buf.Write(ts[:])

	buf.WriteByte(byte(s.Role))

	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)
	buf.WriteByte(byte(len(s.Email)))
	buf.WriteString(s.Email)

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Session, error) {
	if len(data) < headerSize+3 {
		return nil, errBlobTooShort
	}
	if data[0] != formatVersion {
		return nil, errBlobVersion
	}

	s := &Session{}
	copy(s.RefreshHash[:], data[offsetRefreshHash:offsetCreatedAt])
	s.CreatedAt = int64(binary.BigEndian.Uint64(data[offsetCreatedAt:offsetExpiresAt]))
	s.ExpiresAt = int64(binary.BigEndian.Uint64(data[offsetExpiresAt:headerSize]))

	reader := bytes.NewReader(data[headerSize:])

	r, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	s.Role = role.Role(r)
	if s.Role != role.None && s.Role != role.Unknown && !s.Role.Valid() {
		return nil, errRoleOutOfRange
	}

	if s.UserID, err = readShortString(reader); err != nil {
		return nil, err
	}
	if s.Email, err = readShortString(reader); err != nil {
		return nil, err
	}

	return s, nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
