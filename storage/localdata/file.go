package localdata

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/learnspace/learnspace/core/session"
)

// FileStore keeps the session record in a single JSON file, the durable
// equivalent of the web client's localStorage key. Replacement is atomic
// (write-to-temp + rename) so a watcher never observes a half-written record.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ session.Backend = (*FileStore)(nil) // interface compliance check

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) Put(data []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "creating session dir")
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "creating temp record")
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp record")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp record")
	}
	return errors.Wrap(os.Rename(tmp.Name(), fs.path), "committing record")
}

func (fs *FileStore) Get() ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, session.ErrNoRecord
		}
		return nil, errors.Wrap(err, "reading record")
	}
	return data, nil
}

func (fs *FileStore) Delete() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.path); err != nil {
		if os.IsNotExist(err) {
			return session.ErrNoRecord
		}
		return errors.Wrap(err, "removing record")
	}
	return nil
}

// Watch reports record changes, including those made by other processes
// (the cross-tab "storage" event analogue). A Put from this process trips
// the watch as well; observers recompute idempotently so the duplicate
// notification is harmless.
func (fs *FileStore) Watch(notify func()) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating watcher")
	}

	// watch the directory: the record file itself may not exist yet,
	// and the atomic rename replaces its inode on every write
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "creating session dir")
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "watching session dir")
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != fs.path {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					notify()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			watcher.Close()
		})
	}, nil
}
