package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/resonance/am"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/resonance"
)

// run executes cmd with args and returns what it wrote to its output.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setup(t *testing.T) (dir, dbPath string) {
	t.Helper()
	dir = t.TempDir()
	t.Chdir(dir)
	am.Reset()
	t.Cleanup(am.Reset)
	return dir, filepath.Join(dir, "witness.db")
}

func writeRegion(t *testing.T, path string, buf []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, buf, 0644))
}

func TestCommitThenVerify(t *testing.T) {
	dir, dbPath := setup(t)
	region := filepath.Join(dir, "region.bin")

	buf := make([]byte, resonance.RegionSize)
	buf[0], buf[1] = 90, 6
	writeRegion(t, region, buf)

	out, err := run(t, CommitCmd, region, "--db", dbPath, "--json", "--budget", "3", "--no-store=false")
	require.NoError(t, err)

	var committed commitResult
	require.NoError(t, json.Unmarshal([]byte(out), &committed))
	assert.NotEmpty(t, committed.DomainID)
	assert.Equal(t, "sha2-256", committed.Hash)
	assert.Equal(t, resonance.RegionSize, committed.Bytes)
	assert.Equal(t, 3, committed.Budget)
	assert.True(t, committed.Stored)

	out, err = run(t, VerifyCmd, region, "--db", dbPath, "--json", "--domain", committed.DomainID, "--list=false")
	require.NoError(t, err)
	var verified verifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &verified))
	assert.True(t, verified.Match)
	assert.True(t, verified.Conserved)
	assert.Equal(t, committed.Witness, verified.Witness)

	// Change one byte and the stored witness no longer matches.
	buf[100] = 1
	writeRegion(t, region, buf)
	out, err = run(t, VerifyCmd, region, "--db", dbPath, "--json", "--domain", "", "--list=false")
	require.Error(t, err)
	assert.Equal(t, errors.WitnessInvalid, errors.CodeOf(err))
	require.NoError(t, json.Unmarshal([]byte(out), &verified))
	assert.False(t, verified.Match)
	assert.False(t, verified.Conserved)
}

func TestCommit_ConservationViolation(t *testing.T) {
	dir, dbPath := setup(t)
	region := filepath.Join(dir, "bad.bin")

	buf := make([]byte, resonance.RegionSize)
	buf[7] = 1
	writeRegion(t, region, buf)

	_, err := run(t, CommitCmd, region, "--db", dbPath, "--json", "--budget", "0", "--no-store=false")
	require.Error(t, err)
	assert.Equal(t, errors.ConservationViolation, errors.CodeOf(err))
}

func TestCommit_WrongLength(t *testing.T) {
	dir, dbPath := setup(t)
	region := filepath.Join(dir, "short.bin")
	writeRegion(t, region, make([]byte, resonance.PageSize))

	_, err := run(t, CommitCmd, region, "--db", dbPath, "--json", "--budget", "0", "--no-store=true")
	require.Error(t, err)
	assert.Equal(t, errors.InvalidArgument, errors.CodeOf(err))
}

func TestVerify_NoWitnesses(t *testing.T) {
	dir, dbPath := setup(t)
	region := filepath.Join(dir, "region.bin")
	writeRegion(t, region, make([]byte, resonance.RegionSize))

	_, err := run(t, VerifyCmd, region, "--db", dbPath, "--json", "--domain", "", "--list=false")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestWindow_Example(t *testing.T) {
	setup(t)

	out, err := run(t, WindowCmd, "--now", "1000", "--class", "7", "--count", "2", "--json")
	require.NoError(t, err)

	var res windowResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, uint64(1000), res.Now)
	assert.Equal(t, 56, res.Owner)
	assert.Equal(t, []uint64{1049, 1145}, res.Windows)
	require.NotNil(t, res.Wait)
	assert.Equal(t, uint64(49), *res.Wait)
	assert.Empty(t, res.Times, "explicit --now has no wall-clock times")
}

func TestWindow_InvalidCount(t *testing.T) {
	setup(t)
	_, err := run(t, WindowCmd, "--now", "0", "--class", "0", "--count", "0", "--json")
	assert.Equal(t, errors.InvalidArgument, errors.CodeOf(err))
}

func TestClassify_JSON(t *testing.T) {
	dir, _ := setup(t)
	region := filepath.Join(dir, "region.bin")
	writeRegion(t, region, []byte{0, 96, 1, 97, 200})

	out, err := run(t, ClassifyCmd, region, "--json")
	require.NoError(t, err)

	var res classifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 5, res.Bytes)
	assert.Equal(t, uint64(2), res.Histogram[0])
	assert.Equal(t, uint64(2), res.Histogram[1])
	assert.Equal(t, uint64(1), res.Histogram[8])
	assert.Equal(t, (0+96+1+97+200)%96, res.Residue)
	assert.False(t, res.Conserved)
}

func TestCluster_ClassCoordinates(t *testing.T) {
	dir, _ := setup(t)
	region := filepath.Join(dir, "region.bin")
	buf := make([]byte, 2*resonance.PageSize)
	buf[3] = 7
	buf[resonance.PageSize+5] = 103
	writeRegion(t, region, buf)

	out, err := run(t, ClusterCmd, region, "--workers", "2", "--class", "7", "--json")
	require.NoError(t, err)

	var res clusterResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, []uint32{3, resonance.PageSize + 5}, res.Coordinates)
	assert.Equal(t, uint64(2), res.Counts[7])
	assert.Equal(t, uint64(2*resonance.PageSize-2), res.Counts[0])
	assert.Len(t, res.Fingerprint, 16)
}

func TestReadRegion_Empty(t *testing.T) {
	dir, _ := setup(t)
	path := filepath.Join(dir, "empty.bin")
	writeRegion(t, path, nil)

	_, err := readRegion(path)
	assert.Equal(t, errors.InvalidArgument, errors.CodeOf(err))
}
