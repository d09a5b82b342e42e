package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/logger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Logger(t *testing.T) {
	t.Log("Given the need to write structured log records.")
	{
		path := filepath.Join(t.TempDir(), "node.log")

		log, err := logger.New("TEST", path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the logger: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct the logger.", success)

		log.Infow("startup", "status", "ready")
		log.Sync()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read the log file: %v", failed, err)
		}

		for _, want := range []string{`"service":"TEST"`, `"msg":"startup"`, `"status":"ready"`} {
			if !strings.Contains(string(data), want) {
				t.Fatalf("\t%s\tShould find %s in the record: %s", failed, want, data)
			}
		}
		t.Logf("\t%s\tShould write the service field with the record.", success)
	}

	t.Log("Given the need to rotate the log file.")
	{
		path := filepath.Join(t.TempDir(), "node.log")

		log, err := logger.NewRotating("TEST", logger.RotateConfig{Path: path, MaxSizeMB: 1})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the logger: %v", failed, err)
		}

		log.Infow("startup")
		log.Sync()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("\t%s\tShould create the log file: %v", failed, err)
		}
		if !strings.Contains(string(data), `"service":"TEST"`) {
			t.Fatalf("\t%s\tShould write the record to the file: %s", failed, data)
		}
		t.Logf("\t%s\tShould write the record to the file.", success)
	}
}
