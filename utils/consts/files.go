package consts

const DefaultLogDir = "./log"
const DefaultConfigDir = "."
const DefaultLevelDBDir = "./data/leveldb"

const MainConfigFileName = "config-main.yaml"
const PluginConfigFileName = "config-plugin.yaml"
