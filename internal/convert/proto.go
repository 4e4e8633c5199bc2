// Package convert maps domain values to and from the Struct messages of the Vault service.
package convert

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
)

// Message field names.
const (
	FieldUsername             = "username"
	FieldPassword             = "password"
	FieldCode                 = "code"
	FieldAccessToken          = "access_token"
	FieldExpiresAt            = "expires_at"
	FieldSecondFactorRequired = "second_factor_required"
	FieldFilename             = "filename"
	FieldContent              = "content"
	FieldFileID               = "file_id"
	FieldTarget               = "target"
	FieldMetadata             = "metadata"
)

// --- helpers ---

// Empty returns a message without fields.
func Empty() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}
}

func set(s *structpb.Struct, key string, v *structpb.Value) *structpb.Struct {
	if s.Fields == nil {
		s.Fields = map[string]*structpb.Value{}
	}
	s.Fields[key] = v
	return s
}

// SetString sets a string field and returns s.
func SetString(s *structpb.Struct, key, v string) *structpb.Struct {
	return set(s, key, structpb.NewStringValue(v))
}

// SetBool sets a bool field and returns s.
func SetBool(s *structpb.Struct, key string, v bool) *structpb.Struct {
	return set(s, key, structpb.NewBoolValue(v))
}

// SetBytes stores b as standard base64.
func SetBytes(s *structpb.Struct, key string, b []byte) *structpb.Struct {
	return SetString(s, key, base64.StdEncoding.EncodeToString(b))
}

// SetFileID stores id in decimal; float64 Struct numbers cannot carry every int64.
func SetFileID(s *structpb.Struct, id int64) *structpb.Struct {
	return SetString(s, FieldFileID, strconv.FormatInt(id, 10))
}

// String returns the string field or "" when absent. Nil-safe.
func String(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// Bool returns the bool field or false when absent. Nil-safe.
func Bool(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

// Bytes decodes a base64 field. An absent field yields nil.
func Bytes(s *structpb.Struct, key string) ([]byte, error) {
	raw := String(s, key)
	if raw == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not base64", errs.ErrInvalidInput, key)
	}
	return b, nil
}

// FileID parses the file_id field.
func FileID(s *structpb.Struct) (int64, error) {
	return model.ParseFileID(String(s, FieldFileID))
}

// --- requests ---

// ToProtoCredentials builds Register and Login requests.
func ToProtoCredentials(username, password string) *structpb.Struct {
	s := Empty()
	SetString(s, FieldUsername, username)
	return SetString(s, FieldPassword, password)
}

// FromProtoCredentials extracts username and password.
func FromProtoCredentials(s *structpb.Struct) (username, password string) {
	return String(s, FieldUsername), String(s, FieldPassword)
}

// ToProtoUpload builds an Upload request.
func ToProtoUpload(filename string, content []byte) *structpb.Struct {
	s := SetString(Empty(), FieldFilename, filename)
	return SetBytes(s, FieldContent, content)
}

// FromProtoUpload extracts filename and content.
func FromProtoUpload(s *structpb.Struct) (string, []byte, error) {
	content, err := Bytes(s, FieldContent)
	if err != nil {
		return "", nil, err
	}
	return String(s, FieldFilename), content, nil
}

// --- responses ---

// ToProtoTokens renders tokens; a zero expiry is omitted.
func ToProtoTokens(t model.Tokens) *structpb.Struct {
	s := SetString(Empty(), FieldAccessToken, t.AccessToken)
	if !t.ExpiresAt.IsZero() {
		SetString(s, FieldExpiresAt, t.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return s
}

// FromProtoTokens parses tokens from a Login or SubmitSecondFactor response.
func FromProtoTokens(s *structpb.Struct) (model.Tokens, error) {
	t := model.Tokens{AccessToken: String(s, FieldAccessToken)}
	if raw := String(s, FieldExpiresAt); raw != "" {
		exp, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return model.Tokens{}, fmt.Errorf("bad %s: %w", FieldExpiresAt, err)
		}
		t.ExpiresAt = exp
	}
	return t, nil
}
