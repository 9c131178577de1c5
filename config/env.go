package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sarchlab/cohfabric/coherence"
)

// EnvPrefix starts the names of the environment variables that override
// configuration files.
const EnvPrefix = "COHFABRIC_"

type envInt struct {
	key string
	dst func(f *File) **int
}

var envInts = []envInt{
	{"NUM_CPUS", func(f *File) **int { return &f.NumCPUs }},
	{"NUM_L2_SLICES", func(f *File) **int { return &f.NumL2Slices }},
	{"NUM_DIRECTORIES", func(f *File) **int { return &f.NumDirectories }},
	{"NUM_DMAS", func(f *File) **int { return &f.NumDMAs }},
	{"L1_TBES", func(f *File) **int { return &f.L1TBEs }},
	{"L2_TBES", func(f *File) **int { return &f.L2TBEs }},
	{"DIRECTORY_TBES", func(f *File) **int { return &f.DirectoryTBEs }},
	{"DMA_OUTSTANDING", func(f *File) **int { return &f.DMAOutstanding }},
}

type envString struct {
	key string
	dst func(f *File) *string
}

var envStrings = []envString{
	{"PROTOCOL", func(f *File) *string { return &f.Protocol }},
	{"CACHE_LINE_SIZE", func(f *File) *string { return &f.CacheLineSize }},
	{"FABRIC_FREQ", func(f *File) *string { return &f.FabricFreq }},
}

// ApplyEnv loads the given .env files, if they exist, and overrides the
// configuration with the COHFABRIC_ variables of the environment. Variables
// already set in the environment win over the .env files.
func (f *File) ApplyEnv(envFiles ...string) error {
	for _, file := range envFiles {
		err := godotenv.Load(file)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	for _, e := range envInts {
		s, ok := lookup(e.key)
		if !ok {
			continue
		}

		v, err := strconv.Atoi(s)
		if err != nil {
			return coherence.NewConfigurationError(EnvPrefix+e.key,
				"%q is not an integer", s)
		}

		*e.dst(f) = &v
	}

	for _, e := range envStrings {
		if s, ok := lookup(e.key); ok {
			*e.dst(f) = s
		}
	}

	if s, ok := lookup("FULL_SYSTEM"); ok {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return coherence.NewConfigurationError(EnvPrefix+"FULL_SYSTEM",
				"%q is not a boolean", s)
		}

		f.FullSystem = &v
	}

	if s, ok := lookup("MEM_SIZE"); ok {
		f.Memory = []MemRange{{Size: s}}
	}

	return nil
}

func lookup(key string) (string, bool) {
	s, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}

	s = strings.TrimSpace(s)

	return s, s != ""
}
