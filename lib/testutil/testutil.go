package testutil

import (
	"context"
	"elabftw-tools/lib/elabapi"
	"elabftw-tools/lib/elabapi/elabtest"
	"elabftw-tools/lib/restyutil"
	"elabftw-tools/lib/telemetry"
	"fmt"
	"testing"
	"time"
)

type ServiceParams struct {
	Name string
	// if unspecified, requests are not dumped
	DumpDir string
	// if unspecified, it will use 10 seconds
	Timeout time.Duration
}

type ServiceResult struct {
	Client *elabapi.Client
	Server *elabtest.Server
	Ctx    context.Context
}

// SetupService starts a fake eLabFTW instance and returns a client
// authenticated against it. everything is torn down with the test.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	t.Cleanup(cleanup)

	server := elabtest.NewServer(t)

	opts := elabapi.ClientOptions{
		BaseUrl: server.BaseUrl(),
		ApiKey:  elabtest.ApiKey,
	}
	if params.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(params.DumpDir)
		if err != nil {
			t.Fatal(err)
		}
		opts.Dump = output
	}
	client, err := elabapi.NewClient(opts)
	if err != nil {
		t.Fatal(err)
	}

	timeout := params.Timeout
	if timeout == 0 {
		timeout = time.Second * 10
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)

	return ServiceResult{
		Client: client,
		Server: server,
		Ctx:    ctx,
	}
}
