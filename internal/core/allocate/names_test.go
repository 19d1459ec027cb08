package allocate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ResolveName Tests
// =============================================================================

func TestResolveName(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		existing []string
		want     string
		wantErr  error
	}{
		{
			name:     "free base returned unchanged",
			base:     "runai-postgres",
			existing: nil,
			want:     "runai-postgres",
		},
		{
			name:     "taken base gets first suffix",
			base:     "runai-postgres",
			existing: []string{"runai-postgres"},
			want:     "runai-postgres-1",
		},
		{
			name:     "taken base and first suffix",
			base:     "runai-postgres",
			existing: []string{"runai-postgres", "runai-postgres-1"},
			want:     "runai-postgres-2",
		},
		{
			name:     "first gap wins over higher suffixes",
			base:     "webui",
			existing: []string{"webui", "webui-2", "webui-3"},
			want:     "webui-1",
		},
		{
			name:     "unrelated names ignored",
			base:     "webui",
			existing: []string{"runai-postgres", "nginx-lb"},
			want:     "webui",
		},
		{
			name:     "special characters compared literally",
			base:     "app.v2",
			existing: []string{"appxv2"},
			want:     "app.v2",
		},
		{
			name:     "double digit suffix",
			base:     "app",
			existing: []string{"app", "app-1", "app-2", "app-3", "app-4", "app-5", "app-6", "app-7", "app-8", "app-9", "app-10"},
			want:     "app-11",
		},
		{
			name:    "empty base rejected",
			base:    "",
			wantErr: ErrEmptyBaseName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveName(tt.base, tt.existing)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveName_Idempotent(t *testing.T) {
	existing := []string{"runai-postgres"}

	first, err := ResolveName("runai-postgres", existing)
	require.NoError(t, err)

	// Same base against the unchanged inventory resolves identically.
	second, err := ResolveName("runai-postgres", existing)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveName_SequentialResolutionsIncrease(t *testing.T) {
	existing := []string{"webui"}

	// Each resolution is claimed before the next, as a deploy does. Results
	// must be distinct with strictly increasing suffixes.
	var got []string
	for i := 0; i < 5; i++ {
		name, err := ResolveName("webui", existing)
		require.NoError(t, err)
		got = append(got, name)
		existing = append(existing, name)
	}

	assert.Equal(t, []string{"webui-1", "webui-2", "webui-3", "webui-4", "webui-5"}, got)
}

func TestResolveName_Exhausted(t *testing.T) {
	existing := []string{"x"}
	for i := 1; i <= maxNameAttempts; i++ {
		existing = append(existing, fmt.Sprintf("x-%d", i))
	}

	_, err := ResolveName("x", existing)
	assert.ErrorIs(t, err, ErrNamesExhausted)
}
