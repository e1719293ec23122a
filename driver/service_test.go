package driver

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	_ "github.com/viant/afs/mem"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/sqlite"
)

const mavenMetadataXML = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>org.modernc</groupId>
  <artifactId>sqlite-driver</artifactId>
  <versioning>
    <latest>1.18.1</latest>
    <release>1.18.1</release>
    <versions>
      <version>1.18.1</version>
      <version>1.14.0</version>
      <version>1.16.2</version>
    </versions>
  </versioning>
</metadata>`

type countingRepository struct {
	Repository
	fetches int32
}

func (r *countingRepository) Fetch(ctx context.Context, coordinate *plugin.Coordinate) ([]byte, error) {
	atomic.AddInt32(&r.fetches, 1)
	return r.Repository.Fetch(ctx, coordinate)
}

type recordingLoader struct {
	locations []string
}

func (l *recordingLoader) Load(ctx context.Context, location string) error {
	l.locations = append(l.locations, location)
	return nil
}

func newTestService(t *testing.T, name string) (*Service, *countingRepository, *recordingLoader) {
	ctx := context.Background()
	fs := afs.New()
	repoURL := "mem://localhost/" + name + "/repo"
	base := repoURL + "/org/modernc/sqlite-driver"
	assert.Nil(t, fs.Upload(ctx, base+"/maven-metadata.xml", 0644, bytes.NewReader([]byte(mavenMetadataXML))))
	for _, v := range []string{"1.14.0", "1.18.1"} {
		assert.Nil(t, fs.Upload(ctx, base+"/"+v+"/sqlite-driver-"+v+".so", 0644, bytes.NewReader([]byte("driver "+v))))
	}
	repository := &countingRepository{Repository: NewMavenRepository(repoURL)}
	loader := &recordingLoader{}
	plugins := plugin.NewRegistry(sqlite.New)
	return New(plugins, repository, NewStore("mem://localhost/"+name+"/drivers"), loader, 0), repository, loader
}

func TestService_ListAvailableVersions(t *testing.T) {
	srv, _, _ := newTestService(t, "versions")
	versions, err := srv.ListAvailableVersions(context.Background(), "sqlite")
	assert.Nil(t, err)
	assert.EqualValues(t, []string{"1.14.0", "1.16.2", "1.18.1"}, versions)

	_, err = srv.ListAvailableVersions(context.Background(), "db2")
	assert.True(t, errors.Is(err, plugin.ErrUnknownFamily))
}

func TestService_Download(t *testing.T) {
	type testCase struct {
		name          string
		version       string
		expectVersion string
		expectErr     error
	}

	testCases := []testCase{
		{name: "default version", version: "", expectVersion: "1.18.1"},
		{name: "explicit version", version: "1.14.0", expectVersion: "1.14.0"},
		{name: "rejected by every plugin", version: "1.2.0", expectErr: plugin.ErrNoCandidateSucceeded},
		{name: "missing in repository", version: "1.15.0", expectErr: ErrAcquisition},
	}

	ctx := context.Background()
	srv, _, _ := newTestService(t, "download")
	for _, tc := range testCases {
		installed, err := srv.Download(ctx, "sqlite", tc.version)
		if tc.expectErr != nil {
			assert.True(t, errors.Is(err, tc.expectErr), "%s: %v", tc.name, err)
			continue
		}
		if assert.Nil(t, err, tc.name) {
			assert.EqualValues(t, tc.expectVersion, installed.Version, tc.name)
			assert.EqualValues(t, "sqlite-driver-"+tc.expectVersion+".so", installed.FileName, tc.name)
		}
	}

	installed, err := srv.ListInstalled(ctx, "sqlite")
	assert.Nil(t, err)
	var versions []string
	for _, item := range installed {
		versions = append(versions, item.Version)
	}
	assert.EqualValues(t, []string{"1.14.0", "1.18.1"}, versions)
}

func TestService_DownloadOnce(t *testing.T) {
	ctx := context.Background()
	srv, repository, _ := newTestService(t, "once")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := srv.Download(ctx, "sqlite", "1.18.1")
			assert.Nil(t, err)
		}()
	}
	wg.Wait()
	_, err := srv.Download(ctx, "sqlite", "1.18.1")
	assert.Nil(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&repository.fetches))

	installed, err := srv.ListInstalled(ctx, "sqlite")
	assert.Nil(t, err)
	if assert.Len(t, installed, 1) {
		assert.EqualValues(t, "1.18.1", installed[0].Version)
		assert.EqualValues(t, len("driver 1.18.1"), installed[0].Size)
	}
}

func TestService_DeleteAndLoad(t *testing.T) {
	ctx := context.Background()
	srv, repository, loader := newTestService(t, "delete")

	installed, err := srv.Load(ctx, "sqlite", "")
	if !assert.Nil(t, err) {
		return
	}
	assert.EqualValues(t, []string{installed.URL}, loader.locations)
	assert.EqualValues(t, 1, atomic.LoadInt32(&repository.fetches))

	assert.Nil(t, srv.Delete(ctx, "sqlite", "1.18.1"))
	remaining, err := srv.ListInstalled(ctx, "sqlite")
	assert.Nil(t, err)
	assert.Empty(t, remaining)

	err = srv.Delete(ctx, "sqlite", "1.18.1")
	assert.True(t, errors.Is(err, ErrNotInstalled))
}

func TestVersionOf(t *testing.T) {
	testCases := map[string]string{
		"sqlite-driver-1.18.1.so": "1.18.1",
		"go-ora-driver-2.9.0.so":  "2.9.0",
		"pgx-driver-5.7.6-rc1.so": "5.7.6-rc1",
		"readme":                  "",
	}
	for fileName, expect := range testCases {
		assert.EqualValues(t, expect, versionOf(fileName), fileName)
	}
}
