// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

//go:build !js

package couchtest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	adminUser     = "admin"
	adminPassword = "abc123"
)

// StartCouchDB starts a CouchDB container and returns its DSN, including
// admin credentials. The test is skipped unless USETC is set in the
// environment.
func StartCouchDB(t *testing.T, image string) string { //nolint:thelper // Not a helper
	if os.Getenv("USETC") == "" {
		t.Skip("USETC not set, skipping testcontainers")
	}
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{"5984/tcp"},
		WaitingFor:   wait.ForHTTP("/").WithPort("5984/tcp").WithStartupTimeout(120 * time.Second),
		Env: map[string]string{
			"COUCHDB_USER":     adminUser,
			"COUCHDB_PASSWORD": adminPassword,
		},
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})
	ip, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mappedPort, err := container.MappedPort(ctx, "5984/tcp")
	if err != nil {
		t.Fatal(err)
	}
	dsn := fmt.Sprintf("http://%s:%s@%s:%s", adminUser, adminPassword, ip, mappedPort.Port())
	for _, db := range []string{"_users", "_replicator"} {
		Put(t, dsn+"/"+db, nil)
	}
	return dsn
}

// Put issues a PUT to url, failing the test on any status other than 201,
// 202 or 412 (already exists).
func Put(t *testing.T, url string, body io.Reader) {
	t.Helper()
	rq, err := http.NewRequest(http.MethodPut, url, body)
	if err != nil {
		t.Fatal(err)
	}
	rq.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(rq)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusCreated, http.StatusAccepted, http.StatusPreconditionFailed:
	default:
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("PUT %s: %s: %s", redact(url), resp.Status, msg)
	}
}

// redact strips credentials from a URL for error output.
func redact(url string) string {
	if i := strings.LastIndex(url, "@"); i >= 0 {
		if j := strings.Index(url, "://"); j >= 0 && j < i {
			return url[:j+3] + url[i+1:]
		}
	}
	return url
}
