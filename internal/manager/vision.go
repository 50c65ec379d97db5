package manager

import "strings"

// Vision capability is detected from the model manifest: either a known
// multimodal indicator key is present, or the architecture family matches a
// known vision family. Ordered rule lists, first match wins.

// Manifest keys whose presence marks a multimodal model.
var visionManifestKeys = []string{
	"vision_config",
	"image_token_index",
	"image_token_id",
	"mm_projector_type",
	"mm_hidden_size",
	"vision_tower",
}

// Architecture/family substrings of known vision-language models, matched
// case-insensitively against the manifest architectures and the model name.
var visionFamilies = []string{
	"llava",
	"-vl",
	"_vl",
	"idefics",
	"paligemma",
	"pixtral",
	"minicpm-v",
	"moondream",
	"vision",
}

// detectVision inspects the manifest and model name for multimodal markers.
func detectVision(manifest map[string]any, name string) bool {
	for _, key := range visionManifestKeys {
		if _, ok := manifest[key]; ok {
			return true
		}
	}
	var families []string
	if arch, ok := manifest["architectures"].([]any); ok {
		for _, a := range arch {
			families = append(families, strings.ToLower(strings.TrimSpace(toString(a))))
		}
	}
	if mt, ok := manifest["model_type"].(string); ok {
		families = append(families, strings.ToLower(mt))
	}
	families = append(families, strings.ToLower(name))
	for _, fam := range families {
		for _, marker := range visionFamilies {
			if strings.Contains(fam, marker) {
				return true
			}
		}
	}
	return false
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
