package links

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQROrder(t *testing.T) {
	tests := []struct {
		name    string
		input   *string
		want    *string
		wantErr bool
	}{
		{name: "default order", input: strPtr("1,2"), want: strPtr("1,2")},
		{name: "swapped order", input: strPtr("2,1"), want: strPtr("2,1")},
		{name: "nil means default", input: nil, want: nil},
		{name: "empty means default", input: strPtr(""), want: nil},
		{name: "blank means default", input: strPtr("  "), want: nil},
		{name: "repeated slot", input: strPtr("1,1"), wantErr: true},
		{name: "unknown slot", input: strPtr("1,3"), wantErr: true},
		{name: "single slot", input: strPtr("1"), wantErr: true},
		{name: "three slots", input: strPtr("1,2,1"), wantErr: true},
		{name: "spaces around slots", input: strPtr("1, 2"), wantErr: true},
		{name: "trailing comma", input: strPtr("1,"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateQROrder(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedQROrder)
				assert.True(t, IsClientError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExpiry(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)

	tests := []struct {
		name  string
		input *string
		want  *time.Time
	}{
		{name: "nil", input: nil, want: nil},
		{name: "blank", input: strPtr(" "), want: nil},
		{name: "date only", input: strPtr("2025-01-01"), want: timePtr(time.Date(2025, 1, 1, 0, 0, 0, 0, loc))},
		{name: "datetime local input", input: strPtr("2025-01-01T18:30"), want: timePtr(time.Date(2025, 1, 1, 18, 30, 0, 0, loc))},
		{name: "datetime with seconds", input: strPtr("2025-01-01 18:30:15"), want: timePtr(time.Date(2025, 1, 1, 18, 30, 15, 0, loc))},
		{name: "rfc3339", input: strPtr("2025-01-01T10:00:00Z"), want: timePtr(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))},
		{name: "rfc3339 with millis", input: strPtr("2025-01-01T10:00:00.000Z"), want: timePtr(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExpiry(tt.input, loc)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestParseExpiry_Malformed(t *testing.T) {
	for _, raw := range []string{"tomorrow", "2025-13-01", "01/02/2025", "2025-01-01T25:00"} {
		_, err := ParseExpiry(strPtr(raw), time.UTC)
		assert.ErrorIs(t, err, ErrMalformedExpiry, raw)
	}
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, validatePath("promo"))
	assert.NoError(t, validatePath("team/docs"))
	assert.NoError(t, validatePath("admin2"))

	assert.ErrorIs(t, validatePath(""), ErrValidation)
	assert.ErrorIs(t, validatePath("/promo"), ErrValidation)
	assert.ErrorIs(t, validatePath("has space"), ErrValidation)
	assert.ErrorIs(t, validatePath("tab\there"), ErrValidation)
	assert.ErrorIs(t, validatePath("admin"), ErrReservedPath)
	assert.ErrorIs(t, validatePath("api/mappings"), ErrReservedPath)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
