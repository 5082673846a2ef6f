// Package varspec parses the textual target-variable syntax used by the CLI
// and job files, e.g. "altitude {time,vertical} [m]" or
// "altitude_bounds {time,vertical,independent(2)} [m]".
package varspec
