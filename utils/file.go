package utils

import (
	"os"
	"path/filepath"
)

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || os.IsExist(err)
}

// PathJoin 拼接路径
func PathJoin(elem ...string) string {
	return filepath.Join(elem...)
}

// MakeDirWithMode 创建文件夹（若不存在），返回其绝对路径
func MakeDirWithMode(path string, mode os.FileMode) (string, error) {
	if err := os.MkdirAll(path, mode); err != nil {
		return "", err
	}
	return filepath.Abs(path)
}
