package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigLoadError(path string, cause error) *BuildError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration load failed").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *BuildError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build pipeline errors

func BuildFailed(stage string, cause error) *BuildError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func WorkspaceError(operation string, cause error) *BuildError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

func SiteGenerationError(cause error) *BuildError {
	return Wrap(cause, CategorySite, SeverityFatal, "site generation failed")
}

// Git errors

func RepositoryOpenError(path string, cause error) *BuildError {
	return Wrap(cause, CategoryGit, SeverityFatal, "repository open failed").
		WithContext("path", path)
}

func RefDiscoveryError(cause error) *BuildError {
	return Wrap(cause, CategoryGit, SeverityFatal, "ref discovery failed")
}

// Converter errors

func ConverterMissing(binary string, cause error) *BuildError {
	return Wrap(cause, CategoryRender, SeverityFatal, "converter binary not available").
		WithContext("binary", binary)
}

func ConverterFailed(draft, ref string, cause error) *BuildError {
	return Wrap(cause, CategoryRender, SeverityWarning, "converter invocation failed").
		WithContext("draft", draft).
		WithContext("ref", ref)
}
