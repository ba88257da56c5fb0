// Package prompt builds provider prompts from the shared run parameters.
package prompt

import (
	"fmt"

	"coloring-book-generator/internal/domain/model"
)

const baseNegatives = "text, writing, letters, words, typography, signature, watermark, alphabet, numbers, " +
	"color, shading, grayscale, blurry, filled, photo, realistic"

func difficultyKeywords(level int) string {
	switch {
	case level <= 2:
		return "Toddler style, single large central object, very thick bold outlines, no background details, " +
			"no patterns, vast white space, simple shapes, cute and friendly"
	case level <= 5:
		return "Elementary school coloring book style, moderate detail, simple background scene (e.g., clouds, hills), " +
			"clear outlines, balanced complexity"
	default:
		return "High complexity, zentangle style, mandala patterns, intricate textures, detailed shading lines, " +
			"full page composition, for adults or high schoolers, masterpiece"
	}
}

func compositionInstruction(level int) string {
	if level <= 2 {
		return "Focus on a single, large central subject. Leave the background completely empty (pure white). " +
			"Do NOT fill the page edge-to-edge."
	}
	return "The image must cover the entire page (edge-to-edge). No plain white borders inside the drawing. " +
		"Fill the background with thematic patterns or scenery related to the subject."
}

func negativeConstraints(level int) string {
	if level <= 2 {
		return baseNegatives + ", intricate details, hatching, small patterns, texture on surfaces, complex background, " +
			"noise, gradients, tiny dots, scenery"
	}
	return baseNegatives
}

// mandalaRings maps difficulty to ring density.
func mandalaRings(level int) string {
	switch {
	case level <= 2:
		return "3 to 4 wide concentric rings with large simple petals"
	case level <= 5:
		return "6 to 8 concentric rings with medium petals and simple geometric borders"
	default:
		return "12 or more dense concentric rings with fine filigree, lace and micro patterns"
	}
}

// Coloring is the line-art coloring page prompt.
func Coloring(subject string, level int) string {
	keywords := difficultyKeywords(level)
	return fmt.Sprintf(`Draw a %s black and white coloring page line art of '%s'.

[Strict Constraints]
1. PURE ILLUSTRATION ONLY. Do not write the theme name.
2. Style: %s
3. Composition: %s
4. Negative Prompt (Avoid these): %s
5. No shading, no gray, no colors, no text.
6. Clear, crisp lines.
7. Pure white background.`,
		keywords, subject, keywords, compositionInstruction(level), negativeConstraints(level))
}

// Mandala is the radial-symmetry variant built around the subject.
func Mandala(subject string, level int) string {
	return fmt.Sprintf(`Draw a perfectly symmetrical circular mandala coloring page inspired by '%s'.

[Strict Constraints]
1. PURE ILLUSTRATION ONLY. Do not write the theme name.
2. Structure: %s, radial symmetry around the exact page center.
3. Weave motifs of the subject into the petals and rings.
4. Negative Prompt (Avoid these): %s
5. Black outlines on pure white, no shading, no gray, no colors, no text.
6. Closed shapes only so every region can be colored.`,
		subject, mandalaRings(level), negativeConstraints(level))
}

// Build picks the template for the mode.
func Build(mode model.AppMode, subject string, level int) string {
	if mode == model.AppModeMandala {
		return Mandala(subject, level)
	}
	return Coloring(subject, level)
}

// DifficultyLabel is the human name of a level band.
func DifficultyLabel(level int) string {
	switch {
	case level <= 2:
		return "levels 1-2 (toddler)"
	case level <= 5:
		return "levels 3-5 (elementary)"
	default:
		return "levels 6-10 (teen/adult)"
	}
}

// ModeLabel is used in progress lines.
func ModeLabel(mode model.AppMode) string {
	if mode == model.AppModeMandala {
		return "mandala"
	}
	return "coloring page"
}
