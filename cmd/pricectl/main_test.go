package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEstimateFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "estimate"}
	addEstimateFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestSuggestRequestFromFlags(t *testing.T) {
	cmd := newEstimateFlags(t, "--use-case", "pvp", "--model", "320D", "--year", "2018", "--hours", "0", "--cost", "45000.50")

	req, err := suggestRequestFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, "pvp", req.UseCase)
	assert.Equal(t, "320D", req.Model)
	require.NotNil(t, req.Year)
	assert.Equal(t, 2018, *req.Year)
	require.NotNil(t, req.Hours)
	assert.Equal(t, 0, *req.Hours)
	require.NotNil(t, req.Cost)
	assert.Equal(t, "45000.5", req.Cost.String())
	assert.Nil(t, req.YearTolerance)
	assert.Nil(t, req.HoursTolerance)
}

func TestSuggestRequestFromFlags_Unknowns(t *testing.T) {
	cmd := newEstimateFlags(t, "--use-case", "auction", "--model", "D6", "--year-tolerance", "0")

	req, err := suggestRequestFromFlags(cmd)
	require.NoError(t, err)
	assert.Nil(t, req.Year)
	assert.Nil(t, req.Hours)
	assert.Nil(t, req.Cost)
	require.NotNil(t, req.YearTolerance)
	assert.Equal(t, 0, *req.YearTolerance)
}

func TestSuggestRequestFromFlags_BadCost(t *testing.T) {
	cmd := newEstimateFlags(t, "--use-case", "auction", "--model", "D6", "--cost", "cheap")

	_, err := suggestRequestFromFlags(cmd)
	assert.Error(t, err)
}
