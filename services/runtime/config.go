package runtime

// ServicesConfig is the configuration the device services need. The web
// service builds it once from its own configuration.
type ServicesConfig interface {
	HubName() string
	StorePath() string
	DeviceQueryLimit() int
}

// StaticServicesConfig is a ServicesConfig with fixed values.
type StaticServicesConfig struct {
	Hub        string `validate:"required"`
	Store      string `validate:"required"`
	QueryLimit int    `validate:"min=1,max=1000"`
}

func (c *StaticServicesConfig) HubName() string       { return c.Hub }
func (c *StaticServicesConfig) StorePath() string     { return c.Store }
func (c *StaticServicesConfig) DeviceQueryLimit() int { return c.QueryLimit }
