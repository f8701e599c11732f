package mcpserver

// ArticleFormatContract describes the article format that LLM consumers
// should follow when writing vault articles.
const ArticleFormatContract = `# zolapub Article Format Contract

Every article in the vault posts directory MUST follow this structure so
that it survives a push to the Zola site unchanged in meaning.

## Structure

` + "```" + `markdown
+++
title = "Human-readable title"      # REQUIRED – falls back to the file name
date = "2025-01-15"                 # OPTIONAL – ISO-like, sorted as text
draft = true                        # OPTIONAL – defaults to false

[taxonomies]
tags = ["tag-one", "tag-two"]       # OPTIONAL – ordered list
+++

Body text in standard Markdown.

![[../post_imgs/diagram.png]]
` + "```" + `

## Rules

1. **TOML frontmatter is mandatory.** The ` + "`" + `+++` + "`" + ` line must be the very first
   line of the file and a second ` + "`" + `+++` + "`" + ` line closes the block.
2. **Values** are booleans, double-quoted strings or flat arrays of quoted strings.
   Nested tables other than ` + "`" + `[taxonomies]` + "`" + ` are not read.
3. **File names** end with ` + "`" + `.md` + "`" + `, are lowercase kebab-case and are the
   identity of the article in both trees. Renaming a file creates a new article.
4. ` + "`" + `_index.md` + "`" + ` and ` + "`" + `index.md` + "`" + ` (any case) are section files and are never synced.
5. Files starting with a dot are ignored.

## Images

- Add images with the ` + "`" + `add_image` + "`" + ` tool. It returns an ` + "`" + `embed` + "`" + ` field ready to paste.
- In the vault, reference images with the wiki syntax ` + "`" + `![[../post_imgs/name.png]]` + "`" + `.
  Push rewrites it to ` + "`" + `![](/post_imgs/name.png)` + "`" + ` on the site.
- Image names are identities too: a pushed image is never replaced on the site,
  so upload a new name instead of changing an existing image.
- Supported formats: png, jpg, jpeg, gif, webp, svg, ico.
- Standard Markdown images with external URLs are left untouched.
`
