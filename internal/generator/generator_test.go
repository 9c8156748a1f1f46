package generator

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keyPath = "/keys/issuer.pem"

func testPosition() *model.OrderPosition {
	return &model.OrderPosition{
		ID:            11,
		PositionID:    2,
		ItemID:        6,
		AttendeeEmail: "ada@example.org",
		OrderCode:     "ABC12",
		EventSlug:     "devcon",
	}
}

func newTestGenerator(t *testing.T, command string, timeout time.Duration) *CommandGenerator {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, keyPath, []byte("KEY"), 0o600))
	logger := zerolog.Nop()
	g, err := NewCommandGenerator(command, timeout, fs, &logger)
	require.NoError(t, err)
	return g
}

func TestParseCommand(t *testing.T) {
	t.Run("Should split quoted arguments", func(t *testing.T) {
		parts, err := parseCommand(`java -cp "/opt/attestation/attestation all.jar" org.devcon.ticket.Issuer`)
		require.NoError(t, err)
		assert.Equal(t, []string{"java", "-cp", "/opt/attestation/attestation all.jar", "org.devcon.ticket.Issuer"}, parts)
	})

	t.Run("Should reject empty and malformed commands", func(t *testing.T) {
		for _, command := range []string{"", "   ", "java\n-jar", "-rf /"} {
			_, err := parseCommand(command)
			assert.Error(t, err, command)
		}
	})
}

func TestCommandGenerator_Args(t *testing.T) {
	logger := zerolog.Nop()
	g, err := NewCommandGenerator("issuer --format url", time.Second, afero.NewMemMapFs(), &logger)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"--format", "url", keyPath, "ada@example.org", "devcon", "ABC12-2", "6"},
		g.Args(testPosition(), keyPath),
	)
}

func TestCommandGenerator_GenerateLink(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return trimmed stdout", func(t *testing.T) {
		g := newTestGenerator(t, `sh -c 'printf "  ?ticket=%s&mail=%s\n" "$4" "$2"' issuer`, 5*time.Second)

		link, err := g.GenerateLink(ctx, testPosition(), keyPath)
		require.NoError(t, err)
		assert.Equal(t, "?ticket=ABC12-2&mail=ada@example.org", link)
	})

	t.Run("Should report value error on non-zero exit", func(t *testing.T) {
		g := newTestGenerator(t, `sh -c 'echo bad key >&2; exit 3' issuer`, 5*time.Second)

		_, err := g.GenerateLink(ctx, testPosition(), keyPath)
		assert.ErrorIs(t, err, ErrValue)
	})

	t.Run("Should report value error on empty output", func(t *testing.T) {
		g := newTestGenerator(t, `sh -c 'true' issuer`, 5*time.Second)

		_, err := g.GenerateLink(ctx, testPosition(), keyPath)
		assert.ErrorIs(t, err, ErrValue)
	})

	t.Run("Should report value error without attendee email", func(t *testing.T) {
		g := newTestGenerator(t, `sh -c 'echo ?ticket=x' issuer`, 5*time.Second)
		position := testPosition()
		position.AttendeeEmail = ""

		_, err := g.GenerateLink(ctx, position, keyPath)
		assert.ErrorIs(t, err, ErrValue)
	})

	t.Run("Should report value error for missing key file", func(t *testing.T) {
		g := newTestGenerator(t, `sh -c 'echo ?ticket=x' issuer`, 5*time.Second)

		_, err := g.GenerateLink(ctx, testPosition(), "/keys/other.pem")
		assert.ErrorIs(t, err, ErrValue)
	})

	t.Run("Should not treat timeout as value error", func(t *testing.T) {
		g := newTestGenerator(t, `sh -c 'exec sleep 5' issuer`, 50*time.Millisecond)

		_, err := g.GenerateLink(ctx, testPosition(), keyPath)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrValue)
	})

	t.Run("Should not treat missing binary as value error", func(t *testing.T) {
		g := newTestGenerator(t, "definitely-not-an-attestation-issuer", time.Second)

		_, err := g.GenerateLink(ctx, testPosition(), keyPath)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrValue)
	})
}
