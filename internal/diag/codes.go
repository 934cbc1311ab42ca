package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// template scanning
	TplInfo                   Code = 1000
	TplUnterminatedCode       Code = 1001
	TplUnterminatedExpression Code = 1002
	TplEmptyExpression        Code = 1003

	// file system
	IOInfo            Code = 4000
	IOLoadFileError   Code = 4001
	IOWriteFileError  Code = 4002
	IOCacheReadError  Code = 4003
	IOCacheWriteError Code = 4004
	IOInvalidUTF8     Code = 4005

	// driver / project
	DrvInfo                     Code = 5000
	DrvUnknownLanguage          Code = 5001
	DrvMissingLanguageExtension Code = 5002
	DrvNotTemplate              Code = 5003
	DrvManifestError            Code = 5004
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		TplInfo:                     "Template information",
		TplUnterminatedCode:         "Unterminated code block",
		TplUnterminatedExpression:   "Unterminated expression block",
		TplEmptyExpression:          "Empty expression block",
		IOInfo:                      "File system information",
		IOLoadFileError:             "File is not readable",
		IOWriteFileError:            "Failed to write output file",
		IOCacheReadError:            "Failed to read output cache",
		IOCacheWriteError:           "Failed to update output cache",
		IOInvalidUTF8:               "Template is not valid UTF-8",
		DrvInfo:                     "Driver information",
		DrvUnknownLanguage:          "No language for file extension",
		DrvMissingLanguageExtension: "No language extension in file name",
		DrvNotTemplate:              "File is not a template",
		DrvManifestError:            "Invalid project manifest",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("TPL%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("DRV%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
