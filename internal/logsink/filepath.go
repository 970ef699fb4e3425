package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	defaultMaximumLogFilesConstant        = 5
	logDirectoryNameConstant              = "log"
	logFileNameTemplateConstant           = "%s-%s.log"
	logFileTimestampLayoutConstant        = "20060102-150405.000000"
	logFileGlobTemplateConstant           = "%s-*.log"
	cacheDirectoryErrorTemplateConstant   = "unable to resolve user cache directory: %w"
	logDirectoryCreateErrorTemplate       = "unable to create log directory %s: %w"
	logDirectoryListingErrorTemplateConst = "unable to list prior run logs in %s: %w"
	logDirectoryPermissionsConstant       = 0o755
)

// PathResolver produces per-run log file paths inside an application log
// directory and prunes logs from prior runs beyond the retention limit.
type PathResolver struct {
	applicationName string
	baseDirectory   string
	maximumLogFiles int
}

// NewPathResolver constructs a resolver for the named application.
//
// An empty baseDirectory selects the platform cache directory convention; a
// non-positive maximumLogFiles selects the default retention of five files.
func NewPathResolver(applicationName string, baseDirectory string, maximumLogFiles int) *PathResolver {
	if maximumLogFiles <= 0 {
		maximumLogFiles = defaultMaximumLogFilesConstant
	}
	return &PathResolver{
		applicationName: applicationName,
		baseDirectory:   baseDirectory,
		maximumLogFiles: maximumLogFiles,
	}
}

// ResolveLogFilePath returns a unique log file path for the current run.
//
// Existing run logs are pruned oldest-first so that the directory holds at
// most the retention limit including the file about to be created. Unique
// timestamped names make renaming unnecessary, and files of concurrent runs
// are never touched because pruning only removes the sorted excess.
func (resolver *PathResolver) ResolveLogFilePath(currentTime time.Time) (string, error) {
	logDirectory, directoryError := resolver.resolveLogDirectory()
	if directoryError != nil {
		return "", directoryError
	}

	if createError := os.MkdirAll(logDirectory, logDirectoryPermissionsConstant); createError != nil {
		return "", fmt.Errorf(logDirectoryCreateErrorTemplate, logDirectory, createError)
	}

	if pruneError := resolver.pruneExcessLogs(logDirectory); pruneError != nil {
		return "", pruneError
	}

	logFileName := fmt.Sprintf(
		logFileNameTemplateConstant,
		resolver.applicationName,
		currentTime.Format(logFileTimestampLayoutConstant),
	)
	return filepath.Join(logDirectory, logFileName), nil
}

func (resolver *PathResolver) resolveLogDirectory() (string, error) {
	if len(resolver.baseDirectory) > 0 {
		return resolver.baseDirectory, nil
	}

	cacheDirectory, cacheError := os.UserCacheDir()
	if cacheError != nil {
		return "", fmt.Errorf(cacheDirectoryErrorTemplateConstant, cacheError)
	}
	return filepath.Join(cacheDirectory, resolver.applicationName, logDirectoryNameConstant), nil
}

func (resolver *PathResolver) pruneExcessLogs(logDirectory string) error {
	globPattern := filepath.Join(logDirectory, fmt.Sprintf(logFileGlobTemplateConstant, resolver.applicationName))
	presentLogFiles, globError := filepath.Glob(globPattern)
	if globError != nil {
		return fmt.Errorf(logDirectoryListingErrorTemplateConst, logDirectory, globError)
	}

	// The retention limit includes the file about to be created.
	retainedCount := resolver.maximumLogFiles - 1
	if len(presentLogFiles) <= retainedCount {
		return nil
	}

	sort.Strings(presentLogFiles)
	for _, excessLogFile := range presentLogFiles[:len(presentLogFiles)-retainedCount] {
		if removeError := os.Remove(excessLogFile); removeError != nil {
			return fmt.Errorf(logDirectoryListingErrorTemplateConst, logDirectory, removeError)
		}
	}
	return nil
}
