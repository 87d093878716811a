package library

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"Atlas/model"
)

// VolumeResolver finds the live mount point of a filesystem UUID. It returns
// an error wrapping model.ErrUnavailable when the volume is not mounted.
type VolumeResolver interface {
	MountPoint(uuid string) (string, error)
}

// StaticVolumes is a fixed uuid → mount point table.
type StaticVolumes map[string]string

func (s StaticVolumes) MountPoint(uuid string) (string, error) {
	if mp, ok := s[uuid]; ok {
		return mp, nil
	}
	return "", fmt.Errorf("volume %s not mounted: %w", uuid, model.ErrUnavailable)
}

// LinuxVolumes resolves UUIDs through udev's by-uuid links and the kernel
// mount table.
type LinuxVolumes struct {
	ByUUIDDir  string // default /dev/disk/by-uuid
	MountsFile string // default /proc/self/mounts
}

func (v LinuxVolumes) MountPoint(uuid string) (string, error) {
	byUUID := v.ByUUIDDir
	if byUUID == "" {
		byUUID = "/dev/disk/by-uuid"
	}
	mounts := v.MountsFile
	if mounts == "" {
		mounts = "/proc/self/mounts"
	}

	dev, err := filepath.EvalSymlinks(filepath.Join(byUUID, uuid))
	if err != nil {
		return "", fmt.Errorf("volume %s: %v: %w", uuid, err, model.ErrUnavailable)
	}

	f, err := os.Open(mounts)
	if err != nil {
		return "", fmt.Errorf("read mount table: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		src := unescapeMount(fields[0])
		if resolved, err := filepath.EvalSymlinks(src); err == nil {
			src = resolved
		}
		if src == dev {
			return unescapeMount(fields[1]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read mount table: %w", err)
	}
	return "", fmt.Errorf("volume %s (%s) not mounted: %w", uuid, dev, model.ErrUnavailable)
}

// The kernel octal-escapes whitespace and backslashes in mount table fields.
var mountEscapes = strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)

func unescapeMount(s string) string {
	return mountEscapes.Replace(s)
}
