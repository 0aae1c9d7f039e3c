package config

import (
	"log"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	TradeSettled  string `mapstructure:"trade_settled"`
	ReserveResult string `mapstructure:"reserve_result"`
}

// BusinessConfig 业务参数
// 费率、门槛均为外部供给的经营策略，支持热更新，服务每次操作取快照读取
type BusinessConfig struct {
	FeeRate          float64   `mapstructure:"fee_rate"`           // 寄售服务费率
	AgentFeeDiscount float64   `mapstructure:"agent_fee_discount"` // 代理服务费折扣（乘数，1为不打折）
	SplitRatio       float64   `mapstructure:"split_ratio"`        // 剩余利润中可提现部分占比
	DirectRate       float64   `mapstructure:"direct_rate"`        // 直推佣金比例
	IndirectRate     float64   `mapstructure:"indirect_rate"`      // 间推佣金比例
	TierRates        []float64 `mapstructure:"tier_rates"`         // 1-5级累进名义比例，递增
	SameLevelRate    float64   `mapstructure:"same_level_rate"`    // 平级佣金比例
	MaxUplineDepth   int       `mapstructure:"max_upline_depth"`   // 推荐链最大回溯层数
	BaseCredits      int64     `mapstructure:"base_credits"`       // 预约基础算力消耗
	MaxBoostCredits  int64     `mapstructure:"max_boost_credits"`  // 预约加注算力上限
	BaseWeight       int64     `mapstructure:"base_weight"`        // 预约基础权重
	BoostWeightRatio int64     `mapstructure:"boost_weight_ratio"` // 每点加注算力增加的权重
	BucketWidth      int64     `mapstructure:"bucket_width"`       // 专区档宽，单位分
	OpenZoneMargin   int64     `mapstructure:"open_zone_margin"`   // 不封顶专区冻结加成，单位分
	HoldingHours     int       `mapstructure:"holding_hours"`      // 持仓满N小时方可寄售，0为即挂
	ListingHours     int       `mapstructure:"listing_hours"`      // 寄售单有效时长
	TradeOpenHour    int       `mapstructure:"trade_open_hour"`    // 每日交易开放起始小时
	TradeCloseHour   int       `mapstructure:"trade_close_hour"`   // 每日交易开放结束小时，0为全天
	MarkupMin        float64   `mapstructure:"markup_min"`         // 售出后市场价上浮下限
	MarkupMax        float64   `mapstructure:"markup_max"`         // 售出后市场价上浮上限
	MaxRetryCount    int       `mapstructure:"max_retry_count"`    // 发件箱最大重试次数
}

// TierRate 取第 tier 级的名义比例，越界返回0
func (b *BusinessConfig) TierRate(tier int) float64 {
	if tier < 1 || tier > len(b.TierRates) {
		return 0
	}
	return b.TierRates[tier-1]
}

// Manager 配置管理器
// viper 监听配置文件变更，重新解析后整体替换快照；
// 业务参数不经全局变量读取，各服务持有 Manager 按操作取快照
type Manager struct {
	mu  sync.RWMutex
	cfg *Config
}

// Load 加载配置文件并开启热更新监听
func Load(configPath string) *Manager {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	m := &Manager{}
	m.reload()

	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("配置文件变更: %s", e.Name)
		m.reload()
	})
	viper.WatchConfig()

	return m
}

func (m *Manager) reload() {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		if m.cfg == nil {
			log.Fatalf("解析配置文件失败: %v", err)
		}
		// 热更新解析失败时保留旧快照
		log.Printf("解析配置文件失败，沿用旧配置: %v", err)
		return
	}

	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

// Get 取完整配置快照
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Business 取业务参数快照（值拷贝，调用方可安全持有至操作结束）
func (m *Manager) Business() BusinessConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Business
}

// NewStatic 用固定配置构造管理器，测试用
func NewStatic(cfg *Config) *Manager {
	return &Manager{cfg: cfg}
}
