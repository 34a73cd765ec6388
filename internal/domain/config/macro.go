package config

import "fmt"

// MacroType represents how a macro is executed.
type MacroType string

const (
	MacroTypeSQL     MacroType = "sql"     // Statements on a configured data source
	MacroTypeCommand MacroType = "command" // Local shell command
	MacroTypeWinRM   MacroType = "winrm"   // Command on a remote Windows host
)

// String returns the string representation of the macro type.
func (t MacroType) String() string {
	return string(t)
}

// Validate checks if the macro type is valid.
func (t MacroType) Validate() error {
	switch t {
	case MacroTypeSQL, MacroTypeCommand, MacroTypeWinRM:
		return nil
	default:
		return fmt.Errorf("%w: unknown macro type: %s", ErrInvalidConfiguration, t)
	}
}

// WinRMConfig addresses a remote Windows host for winrm macros.
type WinRMConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	PasswordEnv string `yaml:"password-env"`
	UseHTTPS    bool   `yaml:"https"`
}

// MacroConfig defines a named macro.
type MacroConfig struct {
	Type MacroType `yaml:"type"`

	// DataSource and SQL are used by sql macros. SQL may hold several
	// statements separated by semicolons.
	DataSource string `yaml:"data-source"`
	SQL        string `yaml:"sql"`

	// Command is used by command and winrm macros.
	Command string `yaml:"command"`

	// WinRM is used by winrm macros.
	WinRM *WinRMConfig `yaml:"winrm"`
}

// Validate validates the macro definition.
func (c *MacroConfig) Validate() error {
	if err := c.Type.Validate(); err != nil {
		return err
	}

	switch c.Type {
	case MacroTypeSQL:
		if c.DataSource == "" {
			return fmt.Errorf("%w: sql macro requires data-source", ErrInvalidConfiguration)
		}
		if c.SQL == "" {
			return fmt.Errorf("%w: sql macro requires sql", ErrInvalidConfiguration)
		}
	case MacroTypeCommand:
		if c.Command == "" {
			return fmt.Errorf("%w: command macro requires command", ErrInvalidConfiguration)
		}
	case MacroTypeWinRM:
		if c.Command == "" {
			return fmt.Errorf("%w: winrm macro requires command", ErrInvalidConfiguration)
		}
		if c.WinRM == nil || c.WinRM.Host == "" {
			return fmt.Errorf("%w: winrm macro requires winrm.host", ErrInvalidConfiguration)
		}
	}
	return nil
}
