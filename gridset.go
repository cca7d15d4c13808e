package bathymetry

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/ctessum/cdf"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	missingGridCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bathymetry_missing_grid_cache_hits_total",
		Help: "The total number of hits on the missing grid cache",
	})
	missingGridCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bathymetry_missing_grid_cache_misses_total",
		Help: "The total number of misses on the missing grid cache",
	})
	gridCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bathymetry_grid_cache_hits_total",
		Help: "The total number of hits on the grid cache",
	})
	gridCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bathymetry_grid_cache_misses_total",
		Help: "The total number of misses on the grid cache",
	})
	gridCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bathymetry_grid_cache_evictions_total",
		Help: "The total number of evictions from the grid cache",
	})
)

// A GridSet is a set of bathymetry grids loaded lazily from a filesystem,
// one file per grid, with the codec selected by filename extension: .xyz for
// scattered samples, .asc/.topo/.wam for WAM topo ASCII, and .nc for netCDF.
type GridSet struct {
	mutex        sync.Mutex
	fsys         fs.FS
	cacheSize    int
	xyzOptions   []XYZOption
	missingGrids sync.Map
	gridCache    *lru.Cache[string, *Grid]
}

// A GridSetOption sets an option on a GridSet.
type GridSetOption func(*GridSet)

// NewGridSet returns a new GridSet with the given options.
func NewGridSet(options ...GridSetOption) (*GridSet, error) {
	s := &GridSet{
		cacheSize: 32,
	}
	for _, option := range options {
		option(s)
	}

	var err error
	s.gridCache, err = lru.New[string, *Grid](s.cacheSize)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func WithCacheSize(cacheSize int) GridSetOption {
	return func(s *GridSet) {
		s.cacheSize = cacheSize
	}
}

func WithFS(fsys fs.FS) GridSetOption {
	return func(s *GridSet) {
		s.fsys = fsys
	}
}

func WithXYZOptions(xyzOptions ...XYZOption) GridSetOption {
	return func(s *GridSet) {
		s.xyzOptions = xyzOptions
	}
}

// Grid returns the grid stored in the named file, using the cache if
// possible.
func (s *GridSet) Grid(name string) (*Grid, error) {
	if _, ok := s.missingGrids.Load(name); ok {
		missingGridCacheHits.Inc()
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	if grid, ok := s.gridCache.Get(name); ok {
		gridCacheHits.Inc()
		return grid, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.missingGrids.Load(name); ok {
		missingGridCacheHits.Inc()
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	if grid, ok := s.gridCache.Get(name); ok {
		gridCacheHits.Inc()
		return grid, nil
	}

	gridCacheMisses.Inc()

	grid, err := s.readGrid(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.missingGrids.Store(name, struct{}{})
		missingGridCacheMisses.Inc()
		return nil, err
	case err != nil:
		return nil, err
	}

	if eviction := s.gridCache.Add(name, grid); eviction {
		gridCacheEvictions.Inc()
	}

	return grid, nil
}

// readGrid reads the grid stored in the named file.
func (s *GridSet) readGrid(name string) (*Grid, error) {
	file, err := s.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(path.Ext(name)) {
	case ".xyz":
		return ReadXYZ(file, s.xyzOptions...)
	case ".asc", ".topo", ".wam":
		return ReadWAMTopo(file)
	case ".nc":
		if rw, ok := file.(cdf.ReaderWriterAt); ok {
			return ReadNetCDF(rw)
		}
		// Filesystems not backed by *os.File cannot be read at
		// arbitrary offsets; buffer the file instead.
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		return ReadNetCDF(&memFile{buf: data})
	default:
		return nil, fmt.Errorf("%s: unknown bathymetry format", name)
	}
}
