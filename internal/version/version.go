package version

import "fmt"

// 构建时通过 -ldflags "-X github.com/LJTian/WordWeave/internal/version.Version=..." 覆盖
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info 返回多行版本信息
func Info() string {
	return fmt.Sprintf("wordweave %s\ncommit: %s\nbuild: %s", Version, Commit, BuildDate)
}
