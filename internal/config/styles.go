package config

// DefaultBasePrompt keeps the room geometry intact; only finishes change.
const DefaultBasePrompt = "High quality interior visualization, detailed, professional lighting. " +
	"Do not change room layout: keep all walls, windows, doors and openings in their original places; " +
	"no new openings or relocated windows/doors. " +
	"Do not add or remove furniture or decor; only restyle materials, finishes and lighting."

var defaultCamera = []string{
	"eye-level wide shot",
	"corner perspective",
	"straight-on frontal view",
}

// DefaultStyles is the built-in interior style catalog.
func DefaultStyles() []Style {
	return []Style{
		{
			ID:          "modern",
			Name:        "Modern",
			Description: "Clean lines, neutral palette, accent lighting",
			Prompt:      "modern interior, clean lines, neutral palette, soft indirect lighting, photorealistic render",
			Furniture:   []string{"low sectional sofa", "floating media console", "slim metal-frame chairs"},
			Walls:       []string{"warm white paint", "light grey microcement", "oak slat panels"},
			Lighting:    []string{"hidden LED strips", "recessed spotlights", "soft daylight"},
			Camera:      defaultCamera,
		},
		{
			ID:          "scandi",
			Name:        "Scandinavian",
			Description: "Light wood, white walls, cozy minimalism",
			Prompt:      "scandinavian interior, light birch wood, white walls, simple functional furniture, natural daylight, hygge atmosphere, photorealistic render",
			Furniture:   []string{"birch wood dining set", "wool upholstered armchair", "open shelving"},
			Walls:       []string{"matte white paint", "pale birch panels"},
			Lighting:    []string{"natural daylight", "paper pendant lamps"},
			Camera:      defaultCamera,
		},
		{
			ID:          "loft",
			Name:        "Loft",
			Description: "Concrete, brick, metal and exposed services",
			Prompt:      "industrial loft interior, exposed brick, concrete textures, metal accents, high ceiling, photorealistic render",
			Furniture:   []string{"leather chesterfield sofa", "reclaimed wood table", "steel bookshelves"},
			Walls:       []string{"exposed red brick", "raw concrete"},
			Lighting:    []string{"edison bulb pendants", "track lighting"},
			Camera:      defaultCamera,
		},
		{
			ID:          "minimalist",
			Name:        "Minimalist",
			Description: "Minimum decor, maximum air",
			Prompt:      "strict minimalist interior, almost empty space, hidden storage, matte surfaces, monochrome palette, sharp geometry, photorealistic render",
			Furniture:   []string{"handleless built-in storage", "monolithic bench"},
			Walls:       []string{"seamless white plaster", "matte graphite paint"},
			Lighting:    []string{"diffuse ceiling light", "linear wall washers"},
			Camera:      defaultCamera,
		},
		{
			ID:          "classic",
			Name:        "Classic",
			Description: "Mouldings, symmetry and noble materials",
			Prompt:      "classic interior, wall mouldings, symmetry, marble and wood, elegant furniture, photorealistic render",
			Furniture:   []string{"tufted velvet sofa", "carved walnut cabinet"},
			Walls:       []string{"ivory mouldings", "silk wallpaper"},
			Lighting:    []string{"crystal chandelier", "brass wall sconces"},
			Camera:      defaultCamera,
		},
		{
			ID:          "japandi",
			Name:        "Japandi",
			Description: "Japanese minimalism meets Scandinavian comfort",
			Prompt:      "japandi interior, japanese minimalism, low profile furniture, natural wood and stone textures, calm earthy tones, warm soft lighting, clean uncluttered space, photorealistic render",
			Furniture:   []string{"low platform sofa", "ash wood tea table"},
			Walls:       []string{"limewash plaster", "natural clay finish"},
			Lighting:    []string{"rice paper lanterns", "warm indirect light"},
			Camera:      defaultCamera,
		},
		{
			ID:          "luxury-modern",
			Name:        "Luxury Modern",
			Description: "Premium materials, brass and ambient light",
			Prompt:      "luxury modern interior, contemporary design, marble surfaces, brass accents, dark accents, ambient lighting, no classic mouldings, photorealistic render",
			Furniture:   []string{"curved boucle sofa", "marble coffee table"},
			Walls:       []string{"book-matched marble", "dark walnut panels"},
			Lighting:    []string{"ambient cove lighting", "sculptural brass pendant"},
			Camera:      defaultCamera,
		},
		{
			ID:          "art-deco",
			Name:        "Art Deco",
			Description: "Geometry, rich tones and gloss",
			Prompt:      "art deco interior, geometric patterns, rich colors, glossy finishes, brass details, photorealistic render",
			Furniture:   []string{"velvet scalloped armchairs", "lacquered sideboard"},
			Walls:       []string{"emerald lacquer", "geometric gold wallpaper"},
			Lighting:    []string{"fan-shaped sconces", "tiered chandelier"},
			Camera:      defaultCamera,
		},
		{
			ID:          "mediterranean",
			Name:        "Mediterranean",
			Description: "Arches, stucco and warm natural tones",
			Prompt:      "mediterranean interior, white stucco walls, arches, terracotta tiles, natural fabrics, photorealistic render",
			Furniture:   []string{"rattan lounge chairs", "rustic oak table"},
			Walls:       []string{"white stucco", "sand-colored plaster"},
			Lighting:    []string{"warm sunset light", "woven pendant lamps"},
			Camera:      defaultCamera,
		},
	}
}
