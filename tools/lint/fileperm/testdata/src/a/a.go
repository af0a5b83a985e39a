package a

import "os"

const reportPerm = 0o644

func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func write() {
	_ = os.WriteFile("a", nil, 0o600)    // want `use a file permission constant like 'fileutil.ReadWriteUserPermission' instead of hardcoded '0600'`
	_ = os.WriteFile("b", nil, 0644)     // want `use a file permission constant like 'fileutil.ReadWriteUserReadOthers' instead of hardcoded '0644'`
	_ = os.MkdirAll("dir", 0o755)        // want `use a file permission constant like 'fileutil.ReadWriteExecuteUserReadExecuteOthers' instead of hardcoded '0755'`
	_ = WriteFileAtomic("c", nil, 0o644) // want `use a file permission constant like 'fileutil.ReadWriteUserReadOthers' instead of hardcoded '0644'`
	_ = os.Chmod("d", 0o600)             // want `use a file permission constant like 'fileutil.ReadWriteUserPermission' instead of hardcoded '0600'`
	_ = os.WriteFile("e", nil, reportPerm)
	_ = os.WriteFile("f", nil, 0o640)
	_, _ = os.OpenFile("g", os.O_CREATE, 0o700)
}
