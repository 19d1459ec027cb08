package envfile

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runai/stackctl/internal/core/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

func sampleConfig() *domain.DeploymentConfig {
	return &domain.DeploymentConfig{
		ID:      "20260830-154212-9f3ac1d2",
		Network: "runai-net",
		Postgres: domain.ServiceEndpoint{
			ContainerName: "runai-postgres",
			HostPort:      5432,
		},
		WebUIs: []domain.ServiceEndpoint{
			{ContainerName: "runai-webui", HostPort: 3001},
			{ContainerName: "runai-webui-1", HostPort: 3002},
		},
		LoadBalancer:     &domain.ServiceEndpoint{ContainerName: "runai-lb", HostPort: 80},
		DatabaseName:     "openwebui_db",
		DatabaseUser:     "runai_user",
		DatabasePassword: "f00ba7",
		SecretKey:        "deadbeef",
		CreatedAt:        time.Date(2026, 8, 30, 15, 42, 12, 0, time.UTC),
	}
}

// =============================================================================
// Encode Tests
// =============================================================================

func TestEncode_Format(t *testing.T) {
	content, err := Encode(sampleConfig())
	require.NoError(t, err)

	assert.Contains(t, content, "DEPLOYMENT_ID=20260830-154212-9f3ac1d2\n")
	assert.Contains(t, content, "POSTGRES_CONTAINER=runai-postgres\n")
	assert.Contains(t, content, "POSTGRES_PORT=5432\n")
	assert.Contains(t, content, "WEBUI_CONTAINERS=runai-webui,runai-webui-1\n")
	assert.Contains(t, content, "WEBUI_PORTS=3001,3002\n")
	assert.Contains(t, content, "LB_CONTAINER=runai-lb\n")
	assert.Contains(t, content, "CREATED_AT=2026-08-30T15:42:12Z\n")

	// Every non-empty line is a KEY=value assignment.
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		assert.Contains(t, line, "=")
	}
}

func TestEncode_OmitsOptionalKeys(t *testing.T) {
	cfg := sampleConfig()
	cfg.LoadBalancer = nil
	cfg.AdminPasswordHash = ""

	content, err := Encode(cfg)
	require.NoError(t, err)

	assert.NotContains(t, content, "LB_CONTAINER")
	assert.NotContains(t, content, "ADMIN_PASSWORD_HASH")
}

func TestEncode_RejectsNewlineInValue(t *testing.T) {
	cfg := sampleConfig()
	cfg.DatabasePassword = "evil\nPOSTGRES_USER=root"

	_, err := Encode(cfg)
	assert.ErrorIs(t, err, ErrUnsafeValue)
}

func TestEncode_RejectsInvalidConfig(t *testing.T) {
	cfg := sampleConfig()
	cfg.ID = ""

	_, err := Encode(cfg)
	assert.ErrorIs(t, err, domain.ErrMissingDeploymentID)
}

// =============================================================================
// Decode Tests
// =============================================================================

func TestDecode_RoundTrip(t *testing.T) {
	cfg := sampleConfig()
	cfg.AdminPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"

	content, err := Encode(cfg)
	require.NoError(t, err)

	decoded, err := Decode(content)
	require.NoError(t, err)
	assert.Equal(t, cfg, decoded)
}

func TestDecode_IgnoresCommentsAndBlankLines(t *testing.T) {
	content := "# generated by stackctl\n\n" +
		"DEPLOYMENT_ID=a\n" +
		"POSTGRES_CONTAINER=runai-postgres\n" +
		"POSTGRES_PORT=5432\n"

	cfg, err := Decode(content)
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.ID)
	assert.Equal(t, 5432, cfg.Postgres.HostPort)
}

func TestDecode_ValueKeepsEmbeddedEquals(t *testing.T) {
	content := "DEPLOYMENT_ID=a\n" +
		"POSTGRES_CONTAINER=runai-postgres\n" +
		"POSTGRES_PASSWORD=abc=def==\n"

	cfg, err := Decode(content)
	require.NoError(t, err)
	assert.Equal(t, "abc=def==", cfg.DatabasePassword)
}

func TestDecode_MalformedLine(t *testing.T) {
	_, err := Decode("DEPLOYMENT_ID=a\nnot a pair\n")
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestDecode_ListLengthMismatch(t *testing.T) {
	content := "DEPLOYMENT_ID=a\n" +
		"WEBUI_CONTAINERS=runai-webui,runai-webui-1\n" +
		"WEBUI_PORTS=3001\n"

	_, err := Decode(content)
	assert.ErrorIs(t, err, ErrListMismatch)
}

func TestDecode_BadPort(t *testing.T) {
	content := "DEPLOYMENT_ID=a\n" +
		"POSTGRES_CONTAINER=runai-postgres\n" +
		"POSTGRES_PORT=many\n"

	_, err := Decode(content)
	assert.Error(t, err)
}

// =============================================================================
// FileName Tests
// =============================================================================

func TestFileName_Deterministic(t *testing.T) {
	assert.Equal(t, "prod-chat.env", FileName("prod-chat"))
	assert.Equal(t, "prod-chat.env", FileName("prod-chat"))
}

func TestFileName_SlugifiesID(t *testing.T) {
	assert.Equal(t, "etcpasswd-7fef78f5.env", FileName("../etc/passwd"))
	assert.Equal(t, "staging-chat-4feb8790.env", FileName("Staging Chat"))
}

func TestFileName_DistinctIDsNeverCollide(t *testing.T) {
	// All three slug to "prod-chat"; each must get its own file.
	names := map[string]string{
		"prod-chat": FileName("prod-chat"),
		"Prod Chat": FileName("Prod Chat"),
		"PROD.CHAT": FileName("PROD.CHAT"),
	}

	assert.Equal(t, "prod-chat.env", names["prod-chat"])
	assert.Equal(t, "prod-chat-358de030.env", names["Prod Chat"])
	assert.Equal(t, "prod-chat-f5568c3a.env", names["PROD.CHAT"])

	seen := make(map[string]bool)
	for _, name := range names {
		assert.False(t, seen[name], "file name %s assigned twice", name)
		seen[name] = true
	}
}

func TestFileName_AllDroppedCharacters(t *testing.T) {
	// An ID of only dropped characters must not produce a hidden ".env".
	assert.Equal(t, "deployment-56dc6d47.env", FileName("###"))
}
