package manager

import (
	"github.com/RicheyJang/covid19bot/utils/consts"

	"github.com/spf13/viper"
)

// IsSuperUser id是否为超级用户（主配置 superuser 项）
func IsSuperUser(id string) bool {
	if len(id) == 0 {
		return false
	}
	for _, su := range viper.GetStringSlice(consts.SuperUserKey) {
		if su == id {
			return true
		}
	}
	return false
}
