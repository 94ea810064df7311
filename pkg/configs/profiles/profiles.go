package profiles

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/opst/gemdclient/pkg/configs/open"
)

var ErrProfileStoreNotFound = errors.New("profile store is not found")
var ErrCannotCreateConfig = errors.New("cannot create profile store")
var ErrCannotUpdateConfig = errors.New("cannot update profile store")
var ErrProfileInvalid = errors.New("profile is invalid")

// DefaultPath returns the default location of the profile store, ~/.gemd/profile .
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gemd", "profile"), nil
}

// ProfileStore is a map from profile name to Profile.
type ProfileStore map[string]*Profile

type Cert struct {
	// base64 encoded CA certificate
	CA string `yaml:"ca,omitempty"`
}

type Retry struct {
	// Attempts is the number of retries of a request after a transient failure.
	Attempts int `yaml:"attempts,omitempty" validate:"gte=0,lte=10"`

	// Interval is the first wait before a retry. It doubles on each retry.
	Interval time.Duration `yaml:"interval,omitempty" validate:"gte=0"`
}

// Profile tells how to reach a platform.
type Profile struct {
	// ApiRoot is the endpoint of the platform, like "https://example.com".
	ApiRoot string `yaml:"apiRoot" validate:"required,url"`

	Cert Cert `yaml:"cert,omitempty"`

	// RefreshToken is exchanged for access tokens.
	RefreshToken string `yaml:"refreshToken,omitempty"`

	// Project and Dataset are used when commands are not given them.
	Project string `yaml:"project,omitempty" validate:"omitempty,uuid"`
	Dataset string `yaml:"dataset,omitempty" validate:"omitempty,uuid"`

	Retry    Retry  `yaml:"retry,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error off"`
}

var validate = validator.New()

func verifyPEM(b64cert string) bool {
	bin, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return false
	}
	blk, _ := pem.Decode(bin)
	return blk != nil
}

// Verify Profile
//
// # Return
//
// nil if it is valid. Otherwise, ErrProfileInvalid error.
func (p *Profile) Verify() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrProfileInvalid, err)
	}
	if p.Cert.CA != "" && !verifyPEM(p.Cert.CA) {
		return fmt.Errorf("%w: cert.ca is not PEM", ErrProfileInvalid)
	}
	return nil
}

// LoadProfileStore loads profile store from file.
func LoadProfileStore(filepath string) (ProfileStore, error) {
	buf, err := os.ReadFile(filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, filepath)
		}
		return nil, err
	}
	return Unmarshal(buf)
}

// Unmarshal profile store from yaml in byte array.
func Unmarshal(buf []byte) (ProfileStore, error) {
	ret := ProfileStore{}
	if err := yaml.Unmarshal(buf, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Save profile store to file.
//
// Existing content is kept in "<path>.backup" while saving, and restored
// from there by hand if saving fails.
func (ps ProfileStore) Save(path string) error {
	if err := open.ParentDir(path); err != nil {
		return err
	}

	buf, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}

	bkpath := path + ".backup"
	bk, err := open.NewSafeFile(bkpath)
	if err != nil {
		return err
	}
	saved := false
	defer func() {
		bk.Close()
		if saved {
			os.Remove(bkpath)
		}
	}()

	f, err := os.OpenFile(path, os.O_RDWR, os.FileMode(0600))
	switch {
	case err == nil:
		// existing file may have loose permissions.
		if err := open.Restrict(path); err != nil {
			f.Close()
			return err
		}
	case os.IsPermission(err):
		return fmt.Errorf("%w, because no permission to write file at %s", ErrCannotUpdateConfig, path)
	case os.IsNotExist(err):
		f, err = open.NewSafeFile(path)
		if err != nil {
			return fmt.Errorf("%w: cannot create a file at %s", ErrCannotCreateConfig, path)
		}
	default:
		return err
	}
	defer f.Close()

	if _, err := io.Copy(bk, f); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Write(buf); err != nil {
		return err
	}
	saved = true
	return nil
}
