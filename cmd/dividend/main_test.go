package main

import (
	"bytes"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestApp_Simulate(t *testing.T) {
	var buf bytes.Buffer

	app := newApp()
	app.Writer = &buf

	require.NoError(t, app.Run([]string{"dividend", "simulate", "testdata/two_holders.yml"}))
	require.Contains(t, buf.String(), "deposited: \"350\"")
	require.Contains(t, buf.String(), "forfeited: \"0\"")

	require.Error(t, app.Run([]string{"dividend", "simulate"}))
}

func TestApp_InspectFlags(t *testing.T) {
	app := newApp()
	app.Writer = new(bytes.Buffer)

	require.ErrorContains(t, app.Run([]string{"dividend", "inspect"}), "missing Neo RPC endpoint")
	require.ErrorContains(t, app.Run([]string{"dividend", "inspect", "-r", "http://localhost:30333"}), "missing contract")
	require.ErrorContains(t, app.Run([]string{"dividend", "inspect", "-r", "http://localhost:30333", "-c", "nope"}), "contract")
}

func TestParseHash(t *testing.T) {
	h := util.Uint160{1, 2, 3, 4, 5}

	res, err := parseHash(h.StringLE())
	require.NoError(t, err)
	require.Equal(t, h, res)

	res, err = parseHash(address.Uint160ToString(h))
	require.NoError(t, err)
	require.Equal(t, h, res)

	_, err = parseHash("not a hash")
	require.Error(t, err)
}

func TestApp_DeployFlags(t *testing.T) {
	app := newApp()
	app.Writer = new(bytes.Buffer)

	for _, tc := range []struct {
		args []string
		err  string
	}{
		{args: nil, err: "missing Neo RPC endpoint"},
		{args: []string{"-r", "http://localhost:30333"}, err: "missing wallet"},
		{args: []string{"-r", "http://localhost:30333", "-w", "w.json"}, err: "missing contract files"},
		{args: []string{"-r", "http://localhost:30333", "-w", "w.json", "--nef", "c.nef", "--manifest", "m.json"}, err: "missing owner"},
		{args: []string{"-r", "http://localhost:30333", "-w", "w.json", "--nef", "c.nef", "--manifest", "m.json", "--owner", "x", "--supply", "many"}, err: "invalid initial supply"},
		{args: []string{"-r", "http://localhost:30333", "-w", "w.json", "--nef", "c.nef", "--manifest", "m.json", "--owner", "x"}, err: "owner"},
		{args: []string{"-r", "http://localhost:30333", "-w", "w.json", "--nef", "c.nef", "--manifest", "m.json", "--owner", util.Uint160{}.StringLE(), "-c", "nope"}, err: "contract"},
		{args: []string{"-r", "http://localhost:30333", "-w", "w.json", "--nef", "missing.nef", "--manifest", "m.json", "--owner", util.Uint160{}.StringLE()}, err: "read NEF"},
	} {
		err := app.Run(append([]string{"dividend", "deploy"}, tc.args...))
		require.ErrorContains(t, err, tc.err, tc.args)
	}
}
