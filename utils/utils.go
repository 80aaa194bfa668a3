package utils

import (
	"runtime"
	"strconv"
	"strings"
)

var sourceDir string

func init() {
	_, file, _, _ := runtime.Caller(0)
	// compatible solution to get the source directory with various operating systems
	sourceDir = sourceDirFromFile(file)
}

func sourceDirFromFile(file string) string {
	dir := strings.TrimSuffix(file, "utils/utils.go")
	return strings.ReplaceAll(dir, "\\", "/")
}

// FileWithLineNum return the file name and line number of the first caller
// outside this module
func FileWithLineNum() string {
	// the second caller usually from internal, so set i start from 2
	for i := 2; i < 15; i++ {
		_, file, line, ok := runtime.Caller(i)
		if ok && (!strings.HasPrefix(file, sourceDir) || strings.HasSuffix(file, "_test.go")) {
			return file + ":" + strconv.FormatInt(int64(line), 10)
		}
	}

	return ""
}
