// internal/app/system/limits/limits.go
package limits

// Request body size limits for form and API posts.
const (
	// MaxAuthFormSize bounds the login and registration forms.
	MaxAuthFormSize = 64 << 10 // 64 KB

	// MaxDashboardFormSize bounds dashboard control posts (filter, sort,
	// page, viewport, visibility).
	MaxDashboardFormSize = 8 << 10 // 8 KB

	// MaxProjectFormSize bounds the project, ledger entry and task forms.
	MaxProjectFormSize = 16 << 10 // 16 KB
)
