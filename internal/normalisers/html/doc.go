// Package html extracts readable text from HTML course material.
// Scripts, styles and markup are removed, entities are decoded and block
// elements become paragraph breaks.
package html
