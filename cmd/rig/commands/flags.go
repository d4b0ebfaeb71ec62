package commands

import "github.com/spf13/pflag"

// bind makes the flag readable through c.config, with RIG_<NAME> as its fallback.
func (c *CLI) bind(flag *pflag.Flag) {
	// BindPFlag only fails for a nil flag.
	_ = c.config.BindPFlag(flag.Name, flag)
}

// intOverride returns the configured value of key, or nil when neither the flag nor
// the environment sets it.
func (c *CLI) intOverride(key string) *int {
	if !c.config.IsSet(key) {
		return nil
	}
	n := c.config.GetInt(key)
	return &n
}

func (c *CLI) int64Override(key string) *int64 {
	if !c.config.IsSet(key) {
		return nil
	}
	n := c.config.GetInt64(key)
	return &n
}
