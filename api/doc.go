// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the contracts shared by every layer of the library:
// the platform-independent status code enumeration, the typed error
// taxonomy raised at the native boundary, and the handle/request kind tags
// used for safe dispatch of opaque reactor tokens.
package api
