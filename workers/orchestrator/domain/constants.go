package domain

const (
	// Recognized upload extensions
	ExtensionPDF = "pdf"
	ExtensionPNG = "png"
	ExtensionJPG = "jpg"

	// WorkingPrefix is the object-key prefix under which all intermediate
	// per-submission state lives: wip/{id}/...
	WorkingPrefix = "wip/"
)
