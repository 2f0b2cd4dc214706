package utils

import (
	"reflect"
	"runtime"
	"strings"
)

// IsSameFunc 两个函数值是否指向同一函数
func IsSameFunc(fnL, fnR interface{}) bool {
	return reflect.ValueOf(fnL).Pointer() == reflect.ValueOf(fnR).Pointer()
}

// CallerPackageName 沿调用栈向上寻找第一个不为skipPkgName的包名
func CallerPackageName(skipPkgName string) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if name := PackageNameOf(frame.Function); len(name) > 0 && name != skipPkgName {
			return name
		}
		if !more {
			return ""
		}
	}
}

// GetPkgNameByFunc 获取函数所在包的包名
func GetPkgNameByFunc(fn interface{}) string {
	return PackageNameOf(runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name())
}

// PackageNameOf 由完整函数名（如 a/b/pkg.Func）取出包名 pkg
func PackageNameOf(fullName string) string {
	if i := strings.LastIndexByte(fullName, '/'); i >= 0 {
		fullName = fullName[i+1:]
	}
	if i := strings.IndexByte(fullName, '.'); i >= 0 {
		return fullName[:i]
	}
	return fullName
}
