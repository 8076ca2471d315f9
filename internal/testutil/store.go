package testutil

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/andrebq/mindgate/stuff"
)

// AcquireStore opens a writable store in a temporary directory,
// the returned function closes the store and removes the directory
func AcquireStore(ctx context.Context, t TestLog, name string) (*stuff.Store, func()) {
	dir, err := ioutil.TempDir("", "mindgate-tests")
	if err != nil {
		t.Fatal(err)
	}
	abspath := filepath.Join(dir, name)
	st, err := stuff.Open(ctx, abspath, true)
	if err != nil {
		t.Fatal(err)
	}
	return st, func() {
		err := st.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
