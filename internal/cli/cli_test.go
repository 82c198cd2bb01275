package cli_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/carbon/internal/auth"
	"example.com/carbon/internal/cli"
	"example.com/carbon/internal/config"
	"example.com/carbon/internal/emissions"
	"example.com/carbon/internal/report"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    "test-secret",
		JWTIssuer:    "carbon.test",
		DailyLimitKg: 20,
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd("test", emissions.DefaultFactors(), testConfig())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCalculateJSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "calculate", "--electricity", "50", "--petrol", "10", "--output", "json")
	require.NoError(t, err)

	var daily report.Daily
	require.NoError(t, json.Unmarshal([]byte(out), &daily))
	assert.InDelta(t, 36.95, daily.Total, 1e-9)
	require.Len(t, daily.Breakdown, 2)
	assert.Equal(t, "petrol", daily.Ranking[0].Activity)
	assert.True(t, daily.Advice.ExceedsLimit)
	assert.Equal(t, 20.0, daily.Advice.LimitKg)
	assert.Len(t, daily.Equivalents, 2)
}

func TestCalculateText(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "calculate", "--electricity", "100", "--limit", "70")
	require.NoError(t, err)
	assert.Contains(t, out, "electricity")
	assert.Contains(t, out, "27.70")
	assert.Contains(t, out, "Within the daily limit of 70.00 kg")
	assert.NotContains(t, out, "petrol")
}

func TestCalculateZeroFlagIsKept(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "calculate", "--diesel", "0", "-o", "json")
	require.NoError(t, err)

	var daily report.Daily
	require.NoError(t, json.Unmarshal([]byte(out), &daily))
	require.Len(t, daily.Breakdown, 1)
	assert.Equal(t, "diesel", daily.Breakdown[0].Activity)
	assert.Empty(t, daily.Equivalents)
}

func TestCalculateRejectsNegativeQuantity(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "calculate", "--petrol=-5")
	require.ErrorIs(t, err, emissions.ErrNegativeQuantity)
	assert.Contains(t, err.Error(), "petrol")
}

func TestCalculateRejectsNonFiniteQuantity(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"NaN", "Inf", "-Inf"} {
		_, err := execute(t, "calculate", "--petrol="+value)
		require.ErrorIs(t, err, emissions.ErrInvalidQuantity, value)
		assert.Contains(t, err.Error(), "petrol")
	}
}

func TestCalculateRejectsOverflow(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "calculate", "--plastic", "1e308")
	require.ErrorIs(t, err, emissions.ErrEmissionOverflow)
}

func TestCalculateRejectsUnknownActivityFlag(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "calculate", "--coal", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coal")
}

func TestCalculateRejectsBadOutput(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "calculate", "--paper", "1", "--output", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestFactors(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "factors")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 8)
		assert.True(t, strings.HasPrefix(lines[1], "electricity"))
		assert.True(t, strings.HasPrefix(lines[7], "plastic"))
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "factors", "-o", "json")
		require.NoError(t, err)
		var factors []emissions.Factor
		require.NoError(t, json.Unmarshal([]byte(out), &factors))
		assert.Equal(t, emissions.DefaultFactors().Factors(), factors)
	})
}

func TestCalculateFlagsFollowInjectedTable(t *testing.T) {
	t.Parallel()

	table, err := emissions.NewFactorTable([]emissions.Factor{{Activity: "flights", KgPerUnit: 90}})
	require.NoError(t, err)

	cmd := cli.NewRootCmd("test", table, testConfig())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"calculate", "--flights", "2", "-o", "json"})
	require.NoError(t, cmd.Execute())

	var daily report.Daily
	require.NoError(t, json.Unmarshal(out.Bytes(), &daily))
	assert.Equal(t, 180.0, daily.Total)
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "token", "--subject", "user-1", "--tenant", "acme", "--scope", auth.ScopeEmissionsAdmin)
	require.NoError(t, err)

	cfg := testConfig()
	claims, err := auth.Parse(strings.TrimSpace(out), auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "acme", claims.TenantID)
	assert.Equal(t, []string{auth.ScopeEmissionsAdmin}, claims.ScopeList())
}

func TestTokenRequiresIdentity(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "token", "--subject", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant")
}
