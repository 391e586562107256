package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/ipfs/go-datastore"
	leveldb "github.com/ipfs/go-ds-leveldb"

	"github.com/osaleh1i1/threatexchange/pkg/api"
	"github.com/osaleh1i1/threatexchange/pkg/messages"
	"github.com/osaleh1i1/threatexchange/pkg/presigner"
	"github.com/osaleh1i1/threatexchange/pkg/store"
	"github.com/osaleh1i1/threatexchange/pkg/store/hmaconfig"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
)

const signalFileExtension = ".pdq.te"

// buildLocalRouter wires the API against stores under dataDir, with no AWS
// services at all. Presigned URLs are still minted (with throwaway
// credentials) so the submit flow exercises the same code paths.
func buildLocalRouter(dataDir string) (http.Handler, error) {
	recordsDs, err := openDatastore(dataDir, "records")
	if err != nil {
		return nil, err
	}
	configDs, err := openDatastore(dataDir, "config")
	if err != nil {
		return nil, err
	}
	datasetsDir, err := mkdirp(dataDir, "datasets")
	if err != nil {
		return nil, err
	}

	recordStore, err := records.NewDsRecordStore(recordsDs)
	if err != nil {
		return nil, fmt.Errorf("creating record store: %w", err)
	}
	configStore, err := hmaconfig.NewDsConfigStore(configDs)
	if err != nil {
		return nil, fmt.Errorf("creating config store: %w", err)
	}

	signer := presigner.NewS3RequestPresigner(awssdk.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("local", "local", ""),
	})

	return api.New(
		api.WithRecordStore(recordStore),
		api.WithConfigStore(configStore),
		api.WithPresigner(signer),
		api.WithImagesTopic(logNotifier{}),
		api.WithImageStore("hma-local-images", "images/"),
		api.WithSignalDataStore(&fsSignalData{dir: datasetsDir, fileExtension: signalFileExtension}),
	)
}

func openDatastore(dataDir string, name string) (datastore.Datastore, error) {
	dir, err := mkdirp(dataDir, name)
	if err != nil {
		return nil, err
	}
	ds, err := leveldb.NewDatastore(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("opening %s datastore: %w", name, err)
	}
	return ds, nil
}

func mkdirp(dirpath ...string) (string, error) {
	dir := path.Join(dirpath...)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", fmt.Errorf("creating directory: %s: %w", dir, err)
	}
	return dir, nil
}

// logNotifier stands in for the images topic when no hasher stage is
// attached. Accepted submissions are logged and dropped.
type logNotifier struct{}

func (logNotifier) PublishURLSubmission(ctx context.Context, msg messages.URLSubmissionMessage) error {
	log.Infof("accepted submission %s (no hasher attached)", msg.ContentID)
	return nil
}

// fsSignalData serves signal file stats from a local directory, one file per
// privacy group at <dir>/<privacy_group_id><extension>.
type fsSignalData struct {
	dir           string
	fileExtension string
}

var _ api.SignalDataStore = (*fsSignalData)(nil)

// FileStats implements api.SignalDataStore. The signal count is the number
// of non-empty lines in the file.
func (f *fsSignalData) FileStats(ctx context.Context, privacyGroupID string) (api.SignalFileStats, error) {
	file, err := os.Open(path.Join(f.dir, privacyGroupID+f.fileExtension))
	if errors.Is(err, os.ErrNotExist) {
		return api.SignalFileStats{}, store.ErrNotFound
	}
	if err != nil {
		return api.SignalFileStats{}, fmt.Errorf("opening signal file: %w", err)
	}
	defer file.Close()

	var count int64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return api.SignalFileStats{}, fmt.Errorf("reading signal file: %w", err)
	}

	var updatedAt time.Time
	if info, err := file.Stat(); err == nil {
		updatedAt = info.ModTime().UTC()
	}
	return api.SignalFileStats{SignalCount: count, UpdatedAt: updatedAt}, nil
}
