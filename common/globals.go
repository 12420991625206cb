package common

// AccVersion is the current compiler version as a string.
const AccVersion string = "0.1.0"

// AccModuleFileName is the name of project files.
const AccModuleFileName string = "acc-mod.toml"

// AccFileExt is the file extension for a source file.
const AccFileExt string = ".ac"

// AccSourceDir is the directory, relative to the project root, that holds the
// project's source files.
const AccSourceDir string = "src"

// AccBuildDir is the directory intermediate build outputs are written to.
const AccBuildDir string = ".acc"

// DefaultEntry is the name of the function used as the program entry point
// when a project does not specify one.
const DefaultEntry string = "main"
