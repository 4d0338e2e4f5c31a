package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Config represents the crossport configuration
type Config struct {
	// Scan settings
	ScanFrom int
	ScanTo   int

	// Suggest settings
	SuggestMax         int
	ReservationTTLDays int

	// Kill settings
	KillSignal  string
	KillConfirm bool

	// Discovery settings
	ContainerRuntime string

	// Interactive view
	UIRefreshSeconds int

	// Remote settings
	RemoteHost string
	RemoteUser string
	SSHKeyPath string
	RemoteBin  string
}

// Default returns the configuration used when no file overrides a key
func Default() *Config {
	return &Config{
		ScanFrom:           3000,
		ScanTo:             9999,
		SuggestMax:         9999,
		ReservationTTLDays: 7,
		KillConfirm:        true,
		ContainerRuntime:   "docker",
		UIRefreshSeconds:   2,
		RemoteUser:         "$USER",
		RemoteBin:          "crossport",
	}
}

// Load reads the layered config files. Later layers override earlier
// ones: ~/.crossport/config, ./.crossport.config, ./.crossport.config.local
// and finally explicitPath when given. Only explicitPath must exist.
func Load(explicitPath string) (*Config, error) {
	var layers []string
	if home, err := os.UserHomeDir(); err == nil {
		layers = append(layers, filepath.Join(home, ".crossport", "config"))
	}
	layers = append(layers, ".crossport.config", ".crossport.config.local")

	return LoadFiles(layers, explicitPath)
}

// LoadFiles applies optional layers in order, then the required explicit
// file if non-empty.
func LoadFiles(layers []string, explicitPath string) (*Config, error) {
	cfg := Default()

	for _, path := range layers {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := loadConfigFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if explicitPath != "" {
		if err := loadConfigFile(explicitPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", explicitPath, err)
		}
	}

	if err := cfg.expandVariables(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile parses a bash-style config file
func loadConfigFile(filename string, cfg *Config) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	// KEY="value" or KEY=value
	re := regexp.MustCompile(`^([A-Z_]+)=(.*)$`)

	lineNo := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		matches := re.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		if err := cfg.set(matches[1], strings.Trim(matches[2], `"'`)); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	return scanner.Err()
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "SCAN_RANGE":
		c.ScanFrom, c.ScanTo, err = ParseRange(value)
	case "SUGGEST_MAX":
		c.SuggestMax, err = strconv.Atoi(value)
	case "RESERVATION_TTL_DAYS":
		c.ReservationTTLDays, err = strconv.Atoi(value)
	case "KILL_SIGNAL":
		c.KillSignal = value
	case "KILL_CONFIRM":
		c.KillConfirm, err = strconv.ParseBool(value)
	case "CONTAINER_RUNTIME":
		c.ContainerRuntime = value
	case "UI_REFRESH_SECONDS":
		c.UIRefreshSeconds, err = strconv.Atoi(value)
	case "REMOTE_HOST":
		c.RemoteHost = value
	case "REMOTE_USER":
		c.RemoteUser = value
	case "SSH_KEY_PATH":
		c.SSHKeyPath = value
	case "REMOTE_BIN":
		c.RemoteBin = value
	}
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return nil
}

// ParseRange parses "<from>-<to>" into two ports
func ParseRange(s string) (int, int, error) {
	fromStr, toStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("expected <from>-<to>")
	}

	from, err := strconv.Atoi(strings.TrimSpace(fromStr))
	if err != nil {
		return 0, 0, fmt.Errorf("bad range start: %w", err)
	}
	to, err := strconv.Atoi(strings.TrimSpace(toStr))
	if err != nil {
		return 0, 0, fmt.Errorf("bad range end: %w", err)
	}

	return from, to, nil
}

// expandVariables expands environment variables and tildes
func (c *Config) expandVariables() error {
	if c.RemoteUser == "${USER}" || c.RemoteUser == "$USER" {
		c.RemoteUser = os.Getenv("USER")
	}

	if strings.HasPrefix(c.SSHKeyPath, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to expand ~ in SSH_KEY_PATH: %w", err)
		}
		c.SSHKeyPath = strings.Replace(c.SSHKeyPath, "~", homeDir, 1)
	}

	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if err := ValidRange(c.ScanFrom, c.ScanTo); err != nil {
		return fmt.Errorf("invalid SCAN_RANGE: %w", err)
	}
	if c.SuggestMax < 1 || c.SuggestMax > 65535 {
		return fmt.Errorf("invalid SUGGEST_MAX %d: must be within 1-65535", c.SuggestMax)
	}
	if c.ReservationTTLDays < 1 {
		return fmt.Errorf("invalid RESERVATION_TTL_DAYS %d: must be positive", c.ReservationTTLDays)
	}
	if c.UIRefreshSeconds < 1 {
		return fmt.Errorf("invalid UI_REFRESH_SECONDS %d: must be positive", c.UIRefreshSeconds)
	}
	return nil
}

// ValidRange reports whether from..to is a usable scan range. Port 0 is
// allowed here; suggestions start at 1 since binding 0 picks any free port.
func ValidRange(from, to int) error {
	if from < 0 || to > 65535 {
		return fmt.Errorf("ports must be within 0-65535")
	}
	if from > to {
		return fmt.Errorf("start %d is after end %d", from, to)
	}
	return nil
}
