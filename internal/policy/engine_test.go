package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	e, err := Load(ctx, "")
	require.NoError(t, err)

	decision, reason, err := e.Evaluate(ctx, Input{Channel: "email", Recipients: 1000})
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision)
	assert.Empty(t, reason)

	decision, reason, err = e.Evaluate(ctx, Input{Channel: "sms", Recipients: 2_000_000})
	require.NoError(t, err)
	assert.Equal(t, DecisionBlock, decision)
	assert.Contains(t, reason, "1000000")
}

func TestLoadPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.rego")
	content := `
package channel_policy

default decision = "allow"

decision = "block" {
	input.channel == "sms"
	input.budget < 10
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	ctx := context.Background()
	e, err := Load(ctx, path)
	require.NoError(t, err)

	decision, _, err := e.Evaluate(ctx, Input{Channel: "sms", Budget: 5})
	require.NoError(t, err)
	assert.Equal(t, DecisionBlock, decision)

	decision, _, err = e.Evaluate(ctx, Input{Channel: "email", Budget: 5})
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision)
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package channel_policy\n\ndecision = {")
	assert.Error(t, err)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.rego"))
	assert.Error(t, err)
}
