package task

// Kind identifies which command created a task and therefore which
// fields of Config are meaningful.
type Kind string

const (
	KindLeech     Kind = "leech"
	KindTwitter   Kind = "twitter"
	KindURLUpload Kind = "urlupload"
	KindJl        Kind = "jl"
	KindQbl       Kind = "qbl"
	KindVt        Kind = "vt"
	KindZip       Kind = "zip"
	KindUnzip     Kind = "unzip"
	KindMediaInfo Kind = "mediainfo"
)

// ToolTag identifies a Tool Dispatch recipe (internal/tools), used by
// Leech and Vt kinds to pick which of the ~10 processing recipes runs.
type ToolTag string

const (
	ToolVideoVideo    ToolTag = "vt"  // video+video concat
	ToolVideoAudio    ToolTag = "va"  // video+audio mux
	ToolAudioAudio    ToolTag = "aa"  // audio+audio concat
	ToolVideoSubtitle ToolTag = "vs"  // video+subtitle
	ToolCompress      ToolTag = "cv"  // compress
	ToolWatermark     ToolTag = "wv"  // watermark
	ToolTrim          ToolTag = "tv"  // trim
	ToolCut           ToolTag = "cut" // cut
	ToolRemoveAudio   ToolTag = "rv"  // extract video (strip audio)
	ToolExtractAudio  ToolTag = "ev"  // extract audio (strip video)
	ToolMediaInfo     ToolTag = "mediainfo"
	ToolZip           ToolTag = "zip"
	ToolUnzip         ToolTag = "unzip"
)
