// Package color provides terminal theming for envpin's console output.
//
// Colors are organized into semantic styles:
//   - Success: passing tests, resolved platforms
//   - Failure: failing tests, failed platforms
//   - Warning: skipped tests, truncated records, diagnostics
//   - Muted: durations and secondary text
//   - Header: section titles
//
// Styles use lipgloss adaptive colors, so they follow the terminal
// background. Call Initialize once at startup to force a dark or light
// theme; NO_COLOR is honored by lipgloss itself.
//
// # Usage Example
//
//	color.Initialize(true)
//	fmt.Println(color.SuccessStyle.Render("PASS"))
package color
