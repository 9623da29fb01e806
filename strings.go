package h1

// Wire-level byte constants, grounded on fasthttp's strings.go constant
// table (same flat []byte-constant style, trimmed to tokens of this
// engine's readers/writers and header repair step; strHTTP10,
// strExpect and strGET are currently not referenced).
var (
	strCRLF     = []byte("\r\n")
	strLF       = []byte("\n")
	strCRLFCRLF = []byte("\r\n\r\n")
	strLFLF     = []byte("\n\n")

	strHTTP10 = []byte("HTTP/1.0")
	strHTTP11 = []byte("HTTP/1.1")

	strColon      = []byte(":")
	strColonSpace = []byte(": ")
	strComma      = []byte(",")
	strSemicolon  = []byte(";")

	strConnection       = []byte("connection")
	strContentLength    = []byte("content-length")
	strTransferEncoding = []byte("transfer-encoding")
	strHost             = []byte("host")
	strExpect           = []byte("expect")
	strUpgrade          = []byte("upgrade")

	strClose       = []byte("close")
	strKeepAlive   = []byte("keep-alive")
	strChunked     = []byte("chunked")
	str100Continue = []byte("100-continue")

	strGET     = []byte("GET")
	strHEAD    = []byte("HEAD")
	strCONNECT = []byte("CONNECT")
)
