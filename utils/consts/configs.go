package consts

// 通过Plugin Config来控制一些基本能力的 配置项

const PluginConfigCDKey = "cd" // 配置各插件CD限流时长时，所用的配置项Key

const DefaultCommandPrefix = "!covid19" // 默认命令前缀

const EnvPrefix = "COVIDBOT" // 环境变量前缀，如 COVIDBOT_MATRIX_TOKEN

// 主配置项Key

const PrefixKey = "prefix"
const SuperUserKey = "superuser"
