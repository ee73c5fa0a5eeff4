package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MockFileSystem is an in-memory FileSystem for testing
type MockFileSystem struct {
	files       map[string][]byte
	dirs        map[string]bool
	filePerms   map[string]os.FileMode
	dirPerms    map[string]os.FileMode
	mu          sync.RWMutex
	readErrors  map[string]error
	writeErrors map[string]error
	statErrors  map[string]error
	mkdirErrors map[string]error
	writes      []string
}

// NewMockFileSystem creates a new MockFileSystem instance
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:       make(map[string][]byte),
		dirs:        make(map[string]bool),
		filePerms:   make(map[string]os.FileMode),
		dirPerms:    make(map[string]os.FileMode),
		readErrors:  make(map[string]error),
		writeErrors: make(map[string]error),
		statErrors:  make(map[string]error),
		mkdirErrors: make(map[string]error),
	}
}

// SetReadError sets an error to return when reading a specific file
func (m *MockFileSystem) SetReadError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErrors[filepath.Clean(path)] = err
}

// SetWriteError sets an error to return when writing a specific file
func (m *MockFileSystem) SetWriteError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErrors[filepath.Clean(path)] = err
}

// SetStatError sets an error to return when stating a specific path
func (m *MockFileSystem) SetStatError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statErrors[filepath.Clean(path)] = err
}

// SetMkdirError sets an error to return when creating a specific directory
func (m *MockFileSystem) SetMkdirError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirErrors[filepath.Clean(path)] = err
}

// AddFile adds a file to the mock filesystem
func (m *MockFileSystem) AddFile(path string, data []byte, perm os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.files[path] = data
	m.filePerms[path] = perm
	m.addParents(path)
}

// AddDir adds a directory to the mock filesystem
func (m *MockFileSystem) AddDir(path string, perm os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.dirs[path] = true
	m.dirPerms[path] = perm
	m.addParents(path)
}

// GetFile returns the content of a file
func (m *MockFileSystem) GetFile(path string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files[filepath.Clean(path)]
}

// HasDir reports whether a directory exists
func (m *MockFileSystem) HasDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[filepath.Clean(path)]
}

// FilePerm returns the permission a file was written with
func (m *MockFileSystem) FilePerm(path string) os.FileMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filePerms[filepath.Clean(path)]
}

// Writes returns every path passed to WriteFile, in call order
func (m *MockFileSystem) Writes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.writes))
	copy(out, m.writes)
	return out
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)

	if err, ok := m.readErrors[path]; ok {
		return nil, err
	}

	if data, ok := m.files[path]; ok {
		return data, nil
	}

	return nil, os.ErrNotExist
}

func (m *MockFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)

	if err, ok := m.writeErrors[path]; ok {
		return err
	}
	if !m.dirs[filepath.Dir(path)] {
		return &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	m.files[path] = stored
	m.filePerms[path] = perm
	m.writes = append(m.writes, path)
	return nil
}

func (m *MockFileSystem) Stat(path string) (os.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stat(filepath.Clean(path))
}

func (m *MockFileSystem) stat(path string) (os.FileInfo, error) {
	if err, ok := m.statErrors[path]; ok {
		return nil, err
	}

	if data, ok := m.files[path]; ok {
		return &mockFileInfo{
			name:  filepath.Base(path),
			size:  int64(len(data)),
			mode:  m.filePerms[path],
			isDir: false,
		}, nil
	}

	if _, ok := m.dirs[path]; ok {
		return &mockFileInfo{
			name:  filepath.Base(path),
			size:  0,
			mode:  m.dirPerms[path] | os.ModeDir,
			isDir: true,
		}, nil
	}

	return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
}

func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)

	for p := path; ; p = filepath.Dir(p) {
		if err, ok := m.mkdirErrors[p]; ok {
			return err
		}
		if _, ok := m.files[p]; ok {
			return &fs.PathError{Op: "mkdir", Path: p, Err: errors.New("not a directory")}
		}
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}

	if !m.dirs[path] {
		m.dirs[path] = true
		m.dirPerms[path] = perm
	}
	m.addParents(path)
	return nil
}

func (m *MockFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readDir(filepath.Clean(path))
}

func (m *MockFileSystem) readDir(path string) ([]fs.DirEntry, error) {
	if !m.dirs[path] {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}

	var entries []fs.DirEntry
	seen := make(map[string]bool)

	for filePath := range m.files {
		if filepath.Dir(filePath) == path {
			name := filepath.Base(filePath)
			if !seen[name] {
				entries = append(entries, &mockDirEntry{name: name, isDir: false})
				seen[name] = true
			}
		}
	}

	for dirPath := range m.dirs {
		if filepath.Dir(dirPath) == path && dirPath != path {
			name := filepath.Base(dirPath)
			if !seen[name] {
				entries = append(entries, &mockDirEntry{name: name, isDir: true})
				seen[name] = true
			}
		}
	}

	// os.ReadDir returns entries sorted by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

func (m *MockFileSystem) Walk(root string, walkFn filepath.WalkFunc) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var walk func(string) error
	walk = func(path string) error {
		info, err := m.stat(path)
		if err != nil {
			return walkFn(path, nil, err)
		}

		err = walkFn(path, info, nil)
		if err != nil {
			if info.IsDir() && errors.Is(err, filepath.SkipDir) {
				return nil
			}
			return err
		}

		if info.IsDir() {
			entries, err := m.readDir(path)
			if err != nil {
				return walkFn(path, info, err)
			}

			for _, entry := range entries {
				if err := walk(filepath.Join(path, entry.Name())); err != nil {
					return err
				}
			}
		}

		return nil
	}

	err := walk(filepath.Clean(root))
	if errors.Is(err, filepath.SkipDir) || errors.Is(err, filepath.SkipAll) {
		return nil
	}
	return err
}

// addParents registers every ancestor of path as a directory. Callers hold m.mu.
func (m *MockFileSystem) addParents(path string) {
	for p := filepath.Dir(path); ; p = filepath.Dir(p) {
		if !m.dirs[p] {
			m.dirs[p] = true
			m.dirPerms[p] = 0755
		}
		if filepath.Dir(p) == p {
			return
		}
	}
}

// mockFileInfo implements os.FileInfo
type mockFileInfo struct {
	name  string
	size  int64
	mode  os.FileMode
	isDir bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() os.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// mockDirEntry implements fs.DirEntry
type mockDirEntry struct {
	name  string
	isDir bool
}

func (m *mockDirEntry) Name() string { return m.name }
func (m *mockDirEntry) IsDir() bool  { return m.isDir }
func (m *mockDirEntry) Type() fs.FileMode {
	if m.isDir {
		return fs.ModeDir
	}
	return 0
}
func (m *mockDirEntry) Info() (fs.FileInfo, error) { return nil, errors.New("not implemented") }
