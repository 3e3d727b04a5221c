package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-ini/ini"
)

var ErrMissingSecret = errors.New("missing secret")

// Source returns the raw bytes of a secrets document.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
	String() string
}

// FileSource reads secrets from a local file.
type FileSource struct {
	Path string
}

func (f FileSource) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading secrets file %s: %w", f.Path, err)
	}
	return data, nil
}

func (f FileSource) String() string {
	return "file:" + f.Path
}

// Warehouse holds the connection parameters of the data warehouse.
type Warehouse struct {
	Account    string
	User       string
	PrivateKey string
	Password   string
	Warehouse  string
	Database   string
	Schema     string
	Role       string
	Addr       string
}

// Secrets is the parsed secrets document.
type Secrets struct {
	Warehouse Warehouse
	APIKey    string
}

// Load reads and parses secrets from src.
func Load(ctx context.Context, src Source) (*Secrets, error) {
	data, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse reads a sectioned secrets document. Only the flat subset of the
// hosted-notebook secrets.toml layout is understood: sections of string
// keys, double-quoted or """ multi-line values. Arrays and inline tables are
// not supported, and escapes other than \" are kept verbatim. The warehouse
// section may also be named [snowflake].
//
//	[warehouse]
//	account = "xy12345"
//	user = "DASHBOARD"
//	private_key = """MIIEv..."""
//
//	[dune]
//	api_key = "..."
func Parse(data []byte) (*Secrets, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: false,
		UnescapeValueDoubleQuotes:  true,
		SpaceBeforeInlineComment:   true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("parsing secrets: %w", err)
	}

	section := "warehouse"
	if !file.HasSection(section) && file.HasSection("snowflake") {
		section = "snowflake"
	}
	wh := file.Section(section)
	s := &Secrets{
		Warehouse: Warehouse{
			Account:    wh.Key("account").String(),
			User:       wh.Key("user").String(),
			PrivateKey: wh.Key("private_key").String(),
			Password:   wh.Key("password").String(),
			Warehouse:  wh.Key("warehouse").String(),
			Database:   wh.Key("database").String(),
			Schema:     wh.Key("schema").String(),
			Role:       wh.Key("role").String(),
			Addr:       wh.Key("addr").String(),
		},
		APIKey: file.Section("dune").Key("api_key").String(),
	}

	if s.APIKey == "" {
		return nil, fmt.Errorf("%w: dune.api_key", ErrMissingSecret)
	}
	return s, nil
}

// RequireKeyPair checks the parameters needed for key-pair authentication.
func (w Warehouse) RequireKeyPair() error {
	if w.Account == "" {
		return fmt.Errorf("%w: warehouse.account", ErrMissingSecret)
	}
	if w.User == "" {
		return fmt.Errorf("%w: warehouse.user", ErrMissingSecret)
	}
	if w.PrivateKey == "" {
		return fmt.Errorf("%w: warehouse.private_key", ErrMissingSecret)
	}
	return nil
}
