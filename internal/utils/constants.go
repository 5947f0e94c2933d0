package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

// Configuration file locations used across the project.
const (
	// LocalConfigFileName is the name of the per-project configuration file.
	LocalConfigFileName = ".repoctx.yaml"
	// GlobalConfigDirectoryName is the directory under the user home that holds global configuration.
	GlobalConfigDirectoryName = ".repoctx"
	// GlobalConfigFileName is the name of the configuration file inside the global directory.
	GlobalConfigFileName = "config.yaml"
	// GitIgnoreFileName is the name of the Git ignore file read from a workspace root.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)

// Messages shared between main and the CLI layer.
const (
	// LoggerInitializationFailedMessageFormat reports a failure to construct the application logger.
	LoggerInitializationFailedMessageFormat = "unable to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal application errors.
	ApplicationExecutionFailedMessage = "repoctx execution failed"
)
