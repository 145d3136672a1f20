package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hrhub/backend-go/internal/knowledge"
)

// 政策文档文本提取工具：把PDF或Word文档提取为纯文本，
// 可选按章节分块预览入库效果。
func main() {
	var (
		input  = flag.String("input", "", "输入文档路径，支持.pdf/.docx（必需）")
		output = flag.String("output", "", "输出文本文件路径（可选，默认为输入文件名.txt）")
		chunks = flag.Bool("chunks", false, "打印分块结果而不是写文件")
	)
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "错误: 必须指定输入文档路径 (-input)")
		flag.Usage()
		os.Exit(1)
	}
	if _, err := os.Stat(*input); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "错误: 输入文件不存在: %s\n", *input)
		os.Exit(1)
	}

	parsers := knowledge.NewParserRegistry()
	text, err := parsers.ParsePath(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: 提取失败: %v\n", err)
		os.Exit(1)
	}

	if *chunks {
		chunker := knowledge.NewSectionChunker(0, 0, 0)
		for i, chunk := range chunker.Chunk(text) {
			fmt.Printf("--- chunk %d  section=%q subsection=%q  (%d chars)\n",
				i, chunk.Section, chunk.Subsection, len(chunk.Content))
			fmt.Println(chunk.Content)
			fmt.Println()
		}
		return
	}

	outputPath := *output
	if outputPath == "" {
		ext := filepath.Ext(*input)
		outputPath = strings.TrimSuffix(*input, ext) + ".txt"
	}
	if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "错误: 写入失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("已提取 %d 字符到 %s\n", len(text), outputPath)
}
