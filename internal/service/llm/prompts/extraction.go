package prompts

// ImageExtractionInstruction asks the vision model to transcribe one product
// image.
const ImageExtractionInstruction = `請仔細閱讀這張商品圖片，用繁體中文條列出圖片中可以確認的資訊：
規格與尺寸、材質與成分、使用方式、產品賣點與認證標章。
只寫圖片裡實際看得到的內容，看不清楚的部分直接略過，不要推測。
不要使用 Markdown 語法。`
